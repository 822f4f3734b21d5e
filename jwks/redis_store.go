package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares cache entries through Redis. Values hold the key set
// JSON and its fetch time and do not expire; staleness is decided by the
// Cache, which needs old values for its fallback.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a Store writing keys of the form prefix+url.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

type redisEntry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Set       json.RawMessage `json:"set"`
}

func (s *RedisStore) key(url string) string {
	return s.prefix + url
}

func (s *RedisStore) Load(ctx context.Context, url string) (*Entry, error) {
	raw, err := s.client.Get(ctx, s.key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS entry: %w", err)
	}

	var stored redisEntry
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS entry: %w", err)
	}

	set, err := jwk.Parse(stored.Set)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored JWKS: %w", err)
	}

	return &Entry{Set: set, FetchedAt: stored.FetchedAt}, nil
}

func (s *RedisStore) Save(ctx context.Context, url string, entry *Entry) error {
	set, err := json.Marshal(entry.Set)
	if err != nil {
		return fmt.Errorf("failed to encode JWKS: %w", err)
	}

	raw, err := json.Marshal(redisEntry{FetchedAt: entry.FetchedAt, Set: set})
	if err != nil {
		return fmt.Errorf("failed to encode JWKS entry: %w", err)
	}

	if err := s.client.Set(ctx, s.key(url), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save JWKS entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, url string) error {
	if err := s.client.Del(ctx, s.key(url)).Err(); err != nil {
		return fmt.Errorf("failed to delete JWKS entry: %w", err)
	}
	return nil
}
