package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/auth0/go-idtoken/core"
	"github.com/auth0/go-idtoken/jwks"
	"github.com/auth0/go-idtoken/retry"
	"github.com/auth0/go-idtoken/transport"
	"github.com/auth0/go-idtoken/validator"
)

// Config is the complete configuration of the idtoken command.
type Config struct {
	Transport  TransportConfig  `yaml:"transport"`
	Validation ValidationConfig `yaml:"validation"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
}

// TransportConfig configures the HTTP client used for key set and discovery
// requests.
type TransportConfig struct {
	Timeout        Duration             `yaml:"timeout"`
	Retries        int                  `yaml:"retries"`
	RateLimit      float64              `yaml:"rateLimit"`
	Burst          int                  `yaml:"burst"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// CircuitBreakerConfig enables the transport circuit breaker when Threshold
// is positive.
type CircuitBreakerConfig struct {
	Threshold uint32   `yaml:"threshold"`
	Timeout   Duration `yaml:"timeout"`
}

// ValidationConfig selects the signature algorithm and its parameters.
// RS256 needs one of JWKSURL, Domain or Issuer, tried in that order.
type ValidationConfig struct {
	Algorithm     string   `yaml:"algorithm"`
	Secret        string   `yaml:"secret"`
	JWKSURL       string   `yaml:"jwksURL"`
	Domain        string   `yaml:"domain"`
	Issuer        string   `yaml:"issuer"`
	CacheLifetime Duration `yaml:"cacheLifetime"`
	FetchTimeout  Duration `yaml:"fetchTimeout"`
}

// RedisConfig points the key set cache at a shared Redis store when Addr is
// set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LogConfig configures the logrus logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used for anything a file or the
// environment leaves unset.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Timeout: Duration(transport.DefaultTimeout),
			Retries: retry.DefaultRetries,
		},
		Validation: ValidationConfig{
			Algorithm:     "RS256",
			CacheLifetime: Duration(validator.DefaultCacheLifetime),
		},
		Redis: RedisConfig{Prefix: "idtoken:jwks:"},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults and applies the
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		f, err := os.Open(path) //nolint:gosec // path comes from the operator
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		defer f.Close()

		if err := cfg.decode(f); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader reads YAML from r over the defaults. Environment variables
// are not applied.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// ApplyEnv overrides c with the IDTOKEN_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if value, ok := lookup(key); ok {
			*dst = value
		}
	}
	duration := func(key string, dst *Duration) {
		if value, ok := lookup(key); ok {
			d, err := parseDuration(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = Duration(d)
		}
	}

	duration("IDTOKEN_TIMEOUT", &c.Transport.Timeout)
	if value, ok := lookup("IDTOKEN_RETRIES"); ok {
		retries, err := strconv.Atoi(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("IDTOKEN_RETRIES: invalid integer %q", value))
		} else {
			c.Transport.Retries = retries
		}
	}
	str("IDTOKEN_ALGORITHM", &c.Validation.Algorithm)
	str("IDTOKEN_SECRET", &c.Validation.Secret)
	str("IDTOKEN_JWKS_URL", &c.Validation.JWKSURL)
	str("IDTOKEN_DOMAIN", &c.Validation.Domain)
	str("IDTOKEN_ISSUER", &c.Validation.Issuer)
	duration("IDTOKEN_CACHE_LIFETIME", &c.Validation.CacheLifetime)
	str("IDTOKEN_REDIS_ADDR", &c.Redis.Addr)
	str("IDTOKEN_LOG_LEVEL", &c.Log.Level)

	return errors.Join(errs...)
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Transport.Timeout <= 0 {
		add("transport.timeout must be positive")
	}
	if c.Transport.Retries < 0 || c.Transport.Retries > retry.MaxRetries {
		add("transport.retries must be between 0 and %d, got %d", retry.MaxRetries, c.Transport.Retries)
	}
	if c.Transport.RateLimit < 0 {
		add("transport.rateLimit cannot be negative")
	}
	if c.Transport.RateLimit > 0 && c.Transport.Burst <= 0 {
		add("transport.burst must be positive when rateLimit is set")
	}
	if c.Transport.CircuitBreaker.Threshold > 0 && c.Transport.CircuitBreaker.Timeout <= 0 {
		add("transport.circuitBreaker.timeout must be positive when threshold is set")
	}

	switch strings.ToUpper(c.Validation.Algorithm) {
	case "HS256":
		if c.Validation.Secret == "" {
			add("validation.secret is required for HS256")
		}
	case "RS256":
		if c.Validation.JWKSURL == "" && c.Validation.Domain == "" && c.Validation.Issuer == "" {
			add("validation.jwksURL, validation.domain or validation.issuer is required for RS256")
		}
		lifetime := c.Validation.CacheLifetime.Duration()
		if lifetime < 0 || lifetime%time.Second != 0 {
			add("validation.cacheLifetime must be whole non-negative seconds, got %s", lifetime)
		}
		if c.Validation.FetchTimeout < 0 {
			add("validation.fetchTimeout cannot be negative")
		}
	default:
		add("validation.algorithm must be HS256 or RS256, got %q", c.Validation.Algorithm)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		add("log.format must be text or json, got %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// Logger builds the logrus logger described by c.Log, writing to out.
func (c *Config) Logger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return logger, nil
}

// NewTransport builds the HTTP client described by c.Transport. Extra
// options are applied last.
func (c *Config) NewTransport(logger core.Logger, opts ...transport.Option) (*transport.Client, error) {
	options := []transport.Option{
		transport.WithTimeout(c.Transport.Timeout.Duration()),
		transport.WithRetries(c.Transport.Retries),
		transport.WithLogger(logger),
	}
	if c.Transport.RateLimit > 0 {
		options = append(options, transport.WithRateLimiter(c.Transport.RateLimit, c.Transport.Burst))
	}
	if breaker := c.Transport.CircuitBreaker; breaker.Threshold > 0 {
		options = append(options, transport.WithCircuitBreaker("jwks", breaker.Threshold, breaker.Timeout.Duration()))
	}

	return transport.New(append(options, opts...)...)
}

// NewRedisClient returns a client for c.Redis, or nil when no address is
// configured.
func (c *Config) NewRedisClient() *redis.Client {
	if c.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}

// NewAlgorithm builds the signature algorithm described by c.Validation.
// RS256 fetches keys through client and stores them in Redis when rdb is
// not nil.
func (c *Config) NewAlgorithm(ctx context.Context, client *transport.Client, rdb redis.UniversalClient, logger core.Logger) (validator.Algorithm, error) {
	v := c.Validation

	switch strings.ToUpper(v.Algorithm) {
	case "HS256":
		hs256, err := validator.NewHS256(v.Secret)
		if err != nil {
			return nil, err
		}
		return hs256, nil
	case "RS256":
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", v.Algorithm)
	}

	opts := []validator.RS256Option{
		validator.WithTransport(client),
		validator.WithCacheLogger(logger),
	}
	if v.FetchTimeout > 0 {
		opts = append(opts, validator.WithFetchTimeout(v.FetchTimeout.Duration()))
	}
	if rdb != nil {
		opts = append(opts, validator.WithStore(jwks.NewRedisStore(rdb, c.Redis.Prefix)))
	}

	var (
		rs256    *validator.RS256
		err      error
		lifetime = v.CacheLifetime.Duration()
	)
	switch {
	case v.JWKSURL != "":
		rs256, err = validator.NewRS256(v.JWKSURL, lifetime, opts...)
	case v.Domain != "":
		rs256, err = validator.NewRS256(validator.JWKSURLForDomain(v.Domain), lifetime, opts...)
	default:
		rs256, err = validator.NewRS256FromIssuer(ctx, v.Issuer, lifetime, opts...)
	}
	if err != nil {
		return nil, err
	}
	return rs256, nil
}
