package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/auth0/go-idtoken/core"
)

// ErrFetchFailed is returned when a key set could not be fetched and no
// previous set is cached.
var ErrFetchFailed = errors.New("Could not fetch the JWK set") //nolint:staticcheck // message is part of the public contract

// errNonConforming marks a response that is not a JSON object with a keys array.
var errNonConforming = errors.New("response is not a JWK set")

// Fetcher performs the HTTP request for a key set.
// *transport.Client satisfies it.
type Fetcher interface {
	Request(ctx context.Context, method, url string, header http.Header, body any, timeout time.Duration) (any, error)
}

// WellKnownURL returns the conventional JWKS location of a tenant domain.
func WellKnownURL(domain string) string {
	u := url.URL{Scheme: "https", Host: domain, Path: "/.well-known/jwks.json"}
	return u.String()
}

// Snapshot is the outcome of a cache lookup.
type Snapshot struct {
	Set       jwk.Set
	FetchedAt time.Time

	// FromNetwork is true when Set was fetched by this lookup.
	FromNetwork bool

	// Epoch is the cache epoch Set belongs to.
	Epoch uint64
}

// Cache is a time-bounded cache of one remote key set with stale-on-failure
// fallback. It is safe for concurrent use.
type Cache struct {
	url      string
	lifetime time.Duration
	timeout  time.Duration
	fetcher  Fetcher
	store    Store

	logger  core.Logger
	metrics core.Metrics
	tracer  core.Tracer
	now     func() time.Time

	fetchMu sync.Mutex
	epoch   atomic.Uint64

	// attempts counts completed fetches. lastErr is the error of the most
	// recent one and is guarded by fetchMu.
	attempts atomic.Uint64
	lastErr  error
}

// NewCache returns a cold cache for jwksURL. A zero lifetime disables
// caching, so every lookup fetches.
func NewCache(jwksURL string, lifetime time.Duration, fetcher Fetcher, opts ...Option) (*Cache, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL is required")
	}
	if lifetime < 0 {
		return nil, fmt.Errorf("cache lifetime cannot be negative, got %s", lifetime)
	}
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	c := &Cache{
		url:      jwksURL,
		lifetime: lifetime,
		fetcher:  fetcher,
		store:    NewMemoryStore(),
		logger:   core.NopLogger{},
		metrics:  &core.NoopMetrics{},
		tracer:   &core.NoopTracer{},
		now:      time.Now,
	}
	c.epoch.Store(1)

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return c, nil
}

// URL returns the JWKS URL this cache serves.
func (c *Cache) URL() string {
	return c.url
}

// Lifetime returns how long a fetched set is served without refreshing.
func (c *Cache) Lifetime() time.Duration {
	return c.lifetime
}

// Epoch identifies the current cached value. It advances whenever a fetched
// set is stored and whenever the cache is cleared.
func (c *Cache) Epoch() uint64 {
	return c.epoch.Load()
}

// Get returns the key set, fetching it when the cached one has expired or
// force is set.
func (c *Cache) Get(ctx context.Context, force bool) (jwk.Set, error) {
	snapshot, err := c.Lookup(ctx, force)
	if err != nil {
		return nil, err
	}
	return snapshot.Set, nil
}

// Lookup is Get that also reports where the set came from.
func (c *Cache) Lookup(ctx context.Context, force bool) (Snapshot, error) {
	attempt := c.attempts.Load()

	if !force {
		if entry, epoch := c.load(ctx); entry != nil && c.fresh(entry) {
			return c.snapshot(entry, epoch, false), nil
		}
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// Another caller may have refreshed while we waited.
	previous, epoch := c.load(ctx)
	if !force && previous != nil && c.fresh(previous) {
		return c.snapshot(previous, epoch, false), nil
	}

	// A fetch that failed while we waited answers for us too.
	if !force && c.attempts.Load() != attempt && c.lastErr != nil {
		if previous != nil {
			return c.snapshot(previous, epoch, false), nil
		}
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, c.lastErr)
	}

	ctx, span := c.tracer.StartSpan(ctx, "jwks.fetch")
	defer span.Finish()
	span.SetTag("jwks.url", c.url)
	span.SetTag("jwks.forced", force)

	set, err := c.fetch(ctx)
	if err != nil {
		span.RecordError(err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			c.metrics.IncCounter("jwks_fetch_total", map[string]string{"result": "canceled"})
			return Snapshot{}, fmt.Errorf("JWKS fetch canceled: %w", ctxErr)
		}
		c.lastErr = err
		c.attempts.Add(1)

		if previous != nil {
			c.logger.Warnf("failed to refresh JWKS from %s, serving set fetched at %s: %v",
				c.url, previous.FetchedAt.Format(time.RFC3339), err)
			c.metrics.IncCounter("jwks_fetch_total", map[string]string{"result": "stale"})
			return c.snapshot(previous, epoch, false), nil
		}

		c.logger.Errorf("failed to fetch JWKS from %s: %v", c.url, err)
		c.metrics.IncCounter("jwks_fetch_total", map[string]string{"result": "failure"})
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	c.lastErr = nil
	c.attempts.Add(1)

	entry := &Entry{Set: set, FetchedAt: c.now()}
	if err := c.store.Save(ctx, c.url, entry); err != nil {
		c.logger.Errorf("failed to store JWKS for %s: %v", c.url, err)
	}
	epoch = c.epoch.Add(1)

	c.logger.Infof("fetched JWKS from %s with %d keys", c.url, set.Len())
	c.metrics.IncCounter("jwks_fetch_total", map[string]string{"result": "success"})

	return Snapshot{Set: set, FetchedAt: entry.FetchedAt, FromNetwork: true, Epoch: epoch}, nil
}

// Clear drops the cached set. The next lookup behaves as on a cold cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	if err := c.store.Delete(ctx, c.url); err != nil {
		return err
	}
	c.epoch.Add(1)
	c.logger.Debugf("cleared JWKS cache for %s", c.url)
	return nil
}

func (c *Cache) fresh(entry *Entry) bool {
	return c.now().Sub(entry.FetchedAt) < c.lifetime
}

func (c *Cache) snapshot(entry *Entry, epoch uint64, fromNetwork bool) Snapshot {
	return Snapshot{
		Set:         entry.Set,
		FetchedAt:   entry.FetchedAt,
		FromNetwork: fromNetwork,
		Epoch:       epoch,
	}
}

// load reads the store, treating read errors as a miss. The epoch is read
// first: stores save before advancing it, so the entry is never older than
// the epoch returned with it.
func (c *Cache) load(ctx context.Context) (*Entry, uint64) {
	epoch := c.epoch.Load()
	entry, err := c.store.Load(ctx, c.url)
	if err != nil {
		c.logger.Warnf("failed to read cached JWKS for %s: %v", c.url, err)
		return nil, epoch
	}
	return entry, epoch
}

func (c *Cache) fetch(ctx context.Context) (jwk.Set, error) {
	body, err := c.fetcher.Request(ctx, http.MethodGet, c.url, nil, nil, c.timeout)
	if err != nil {
		return nil, err
	}

	object, ok := body.(map[string]any)
	if !ok {
		return nil, errNonConforming
	}
	if _, ok := object["keys"].([]any); !ok {
		return nil, errNonConforming
	}

	raw, err := json.Marshal(object)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNonConforming, err)
	}

	// Keys of unsupported types are skipped rather than failing the set.
	set, err := jwk.Parse(raw, jwk.WithIgnoreParseError(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNonConforming, err)
	}
	return set, nil
}
