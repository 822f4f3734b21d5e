package validator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/auth0/go-idtoken/core"
	"github.com/auth0/go-idtoken/internal/oidc"
	"github.com/auth0/go-idtoken/jwks"
	"github.com/auth0/go-idtoken/transport"
)

// DefaultCacheLifetime is how long an RS256 key set is served before it is
// fetched again.
const DefaultCacheLifetime = 600 * time.Second

// RS256 verifies tokens signed with RSA-SHA256 against a remote key set.
//
// A token whose kid is missing from the cached set forces at most one
// refresh per cache epoch. Once this instance has fetched in the current
// epoch, unknown kids are rejected without further network calls until the
// set expires or the cache is cleared.
type RS256 struct {
	cache  *jwks.Cache
	logger core.Logger

	// fetchedEpoch is the cache epoch in which this instance last went to
	// the network. The state is Fetched while it equals the epoch of the
	// set being searched, Unfetched otherwise.
	fetchedEpoch atomic.Uint64
	lastFetched  atomic.Bool
}

// JWKSURLForDomain returns the key set URL of a tenant domain.
func JWKSURLForDomain(domain string) string {
	return jwks.WellKnownURL(domain)
}

// NewRS256 returns an RS256 algorithm that fetches keys from jwksURL and
// caches them for lifetime, which must be whole seconds. A zero lifetime
// fetches on every validation.
func NewRS256(jwksURL string, lifetime time.Duration, opts ...RS256Option) (*RS256, error) {
	if jwksURL == "" {
		return nil, invalidParameter("JWKS URL cannot be empty")
	}
	if lifetime < 0 {
		return nil, invalidParameter(fmt.Sprintf("cache lifetime cannot be negative, got %s", lifetime))
	}
	if lifetime%time.Second != 0 {
		return nil, invalidParameter(fmt.Sprintf("cache lifetime must be whole seconds, got %s", lifetime))
	}

	cfg, err := newRS256Config(opts)
	if err != nil {
		return nil, err
	}

	return newRS256(jwksURL, lifetime, cfg)
}

// NewRS256FromIssuer discovers the key set URL from the issuer's OpenID
// configuration and returns an RS256 algorithm for it.
func NewRS256FromIssuer(ctx context.Context, issuer string, lifetime time.Duration, opts ...RS256Option) (*RS256, error) {
	issuerURL, err := url.Parse(issuer)
	if err != nil || issuerURL.Scheme == "" || issuerURL.Host == "" {
		return nil, invalidParameter(fmt.Sprintf("invalid issuer URL %q", issuer))
	}
	if lifetime < 0 || lifetime%time.Second != 0 {
		return nil, invalidParameter(fmt.Sprintf("cache lifetime must be whole non-negative seconds, got %s", lifetime))
	}

	cfg, err := newRS256Config(opts)
	if err != nil {
		return nil, err
	}

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, cfg.client, *issuerURL, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover JWKS URL: %w", err)
	}
	cfg.logger.Infof("discovered JWKS URL %s for issuer %s", endpoints.JWKSURI, issuer)

	return newRS256(endpoints.JWKSURI, lifetime, cfg)
}

func newRS256(jwksURL string, lifetime time.Duration, cfg *rs256Config) (*RS256, error) {
	cache, err := jwks.NewCache(jwksURL, lifetime, cfg.client, cfg.cacheOpts...)
	if err != nil {
		return nil, invalidParameter(err.Error())
	}
	return &RS256{cache: cache, logger: cfg.logger}, nil
}

// Name returns "RS256".
func (a *RS256) Name() string {
	return "RS256"
}

// Cache returns the key set cache, for administrative clearing.
func (a *RS256) Cache() *jwks.Cache {
	return a.cache
}

// FetchedFromNetwork reports whether the last key lookup fetched the key set.
func (a *RS256) FetchedFromNetwork() bool {
	return a.lastFetched.Load()
}

func (a *RS256) verify(ctx context.Context, token []byte, header map[string]any) ([]byte, error) {
	kid, _ := header["kid"].(string)

	key, err := a.publicKey(ctx, kid)
	if err != nil {
		return nil, err
	}
	return verifySignature(token, a.Name(), key)
}

// publicKey resolves kid through the cache, forcing one refresh when the
// kid is unknown and this instance has not fetched in the current epoch.
func (a *RS256) publicKey(ctx context.Context, kid string) (any, error) {
	snapshot, err := a.cache.Lookup(ctx, false)
	if err != nil {
		a.lastFetched.Store(false)
		return nil, cacheError(err)
	}

	fetched := snapshot.FromNetwork
	if fetched {
		a.fetchedEpoch.Store(snapshot.Epoch)
	}

	key, found := a.lookupKey(snapshot.Set, kid)
	if !found && kid != "" && a.fetchedEpoch.Load() != snapshot.Epoch {
		a.logger.Debugf("kid %q not in cached JWKS for %s, forcing a refresh", kid, a.cache.URL())

		snapshot, err = a.cache.Lookup(ctx, true)
		if err != nil {
			a.lastFetched.Store(fetched)
			return nil, cacheError(err)
		}
		a.fetchedEpoch.Store(snapshot.Epoch)
		fetched = fetched || snapshot.FromNetwork

		key, found = a.lookupKey(snapshot.Set, kid)
	}

	a.lastFetched.Store(fetched)
	if !found {
		return nil, invalidIDToken(core.ErrorCodeJWKSKeyNotFound, fmt.Sprintf(fmtKeyNotFound, kid), nil)
	}
	return key, nil
}

func (a *RS256) lookupKey(set jwk.Set, kid string) (any, bool) {
	if kid == "" {
		return nil, false
	}

	key, found := set.LookupKeyID(kid)
	if !found {
		return nil, false
	}

	var raw any
	if err := key.Raw(&raw); err != nil {
		a.logger.Warnf("unusable key %q in JWKS from %s: %v", kid, a.cache.URL(), err)
		return nil, false
	}
	return raw, true
}

// cacheError turns a cold-cache failure into an InvalidIDTokenError.
// Cancellation is returned as is.
func cacheError(err error) error {
	if errors.Is(err, jwks.ErrFetchFailed) {
		return invalidIDToken(core.ErrorCodeJWKSFetchFailed, msgFetchFailed, err)
	}
	return err
}

type rs256Config struct {
	client    *transport.Client
	logger    core.Logger
	cacheOpts []jwks.Option
}

func newRS256Config(opts []RS256Option) (*rs256Config, error) {
	cfg := &rs256Config{logger: core.NopLogger{}}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.client == nil {
		client, err := transport.New(transport.WithLogger(cfg.logger))
		if err != nil {
			return nil, err
		}
		cfg.client = client
	}
	cfg.cacheOpts = append(cfg.cacheOpts, jwks.WithLogger(cfg.logger))
	return cfg, nil
}
