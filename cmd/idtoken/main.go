// Command idtoken validates an ID token against an HS256 secret or an RS256
// key set and prints its claims as JSON.
//
//	idtoken -config idtoken.yaml -token eyJhbGciOi...
//	echo "$TOKEN" | IDTOKEN_DOMAIN=tenant.auth0.com idtoken
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/auth0/go-idtoken/config"
	"github.com/auth0/go-idtoken/core"
	"github.com/auth0/go-idtoken/validator"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath string
	token      string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if err := run(ctx, flags, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "idtoken: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (cliFlags, error) {
	configPath := fs.String("config", getEnvOrDefault("IDTOKEN_CONFIG_PATH", ""),
		"Path to configuration file")
	token := fs.String("token", "", "ID token to validate (read from stdin when empty)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error), overrides the configuration")
	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}

	return cliFlags{
		configPath: *configPath,
		token:      *token,
		logLevel:   *logLevel,
	}, nil
}

func run(ctx context.Context, flags cliFlags, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logrusLogger, err := cfg.Logger(stderr)
	if err != nil {
		return err
	}
	logger := core.NewLogrusLogger(logrusLogger)

	token := flags.token
	if token == "" {
		if token, err = readToken(stdin); err != nil {
			return err
		}
	}

	client, err := cfg.NewTransport(logger)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}

	rdb := cfg.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	alg, err := cfg.NewAlgorithm(ctx, client, rdb, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s algorithm: %w", cfg.Validation.Algorithm, err)
	}

	v, err := validator.New(alg, validator.WithLogger(logger))
	if err != nil {
		return err
	}

	claims, err := v.Validate(ctx, token)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(claims)
}

// readToken returns the first non-empty line of r.
func readToken(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 2<<20)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return "", errors.New("no token given: use -token or pass it on stdin")
}
