package jwks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("it round-trips an entry", func(t *testing.T) {
		mr, client := newTestRedis(t)
		store := NewRedisStore(client, "idtoken:jwks:")

		set, err := parseDocument(generateJWKS(t, "kid-1", "kid-2"))
		require.NoError(t, err)
		fetchedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, store.Save(ctx, testURL, &Entry{Set: set, FetchedAt: fetchedAt}))
		assert.True(t, mr.Exists("idtoken:jwks:"+testURL))
		assert.Zero(t, mr.TTL("idtoken:jwks:"+testURL))

		entry, err := store.Load(ctx, testURL)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.True(t, fetchedAt.Equal(entry.FetchedAt))
		assert.Equal(t, 2, entry.Set.Len())
		_, found := entry.Set.LookupKeyID("kid-2")
		assert.True(t, found)
	})

	t.Run("a missing entry is a miss, not an error", func(t *testing.T) {
		_, client := newTestRedis(t)
		store := NewRedisStore(client, "")

		entry, err := store.Load(ctx, testURL)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("it deletes an entry", func(t *testing.T) {
		mr, client := newTestRedis(t)
		store := NewRedisStore(client, "p:")

		set, err := parseDocument(generateJWKS(t, "kid"))
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, testURL, &Entry{Set: set, FetchedAt: time.Now()}))
		require.NoError(t, store.Delete(ctx, testURL))
		assert.False(t, mr.Exists("p:"+testURL))
	})

	t.Run("it reports corrupt values", func(t *testing.T) {
		mr, client := newTestRedis(t)
		store := NewRedisStore(client, "")
		require.NoError(t, mr.Set(testURL, "not json"))

		_, err := store.Load(ctx, testURL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode JWKS entry")
	})

	t.Run("it reports an unreachable server", func(t *testing.T) {
		mr, client := newTestRedis(t)
		store := NewRedisStore(client, "")
		mr.Close()

		_, err := store.Load(ctx, testURL)
		require.Error(t, err)
	})
}

func TestCache_SharedRedisStore(t *testing.T) {
	_, client := newTestRedis(t)
	document := generateJWKS(t, "shared")

	first := &fakeFetcher{respond: func(int32) (any, error) { return document, nil }}
	second := &fakeFetcher{respond: func(int32) (any, error) { return document, nil }}

	clock := &fakeClock{now: time.Now()}

	cacheA, err := NewCache(testURL, time.Hour, first, WithStore(NewRedisStore(client, "jwks:")))
	require.NoError(t, err)
	cacheA.now = clock.Now

	cacheB, err := NewCache(testURL, time.Hour, second, WithStore(NewRedisStore(client, "jwks:")))
	require.NoError(t, err)
	cacheB.now = clock.Now

	_, err = cacheA.Get(context.Background(), false)
	require.NoError(t, err)

	set, err := cacheB.Get(context.Background(), false)
	require.NoError(t, err)
	_, found := set.LookupKeyID("shared")
	assert.True(t, found)

	assert.Equal(t, int32(1), first.count())
	assert.Equal(t, int32(0), second.count())

	t.Run("a failed refresh serves the shared stale entry", func(t *testing.T) {
		failing := &fakeFetcher{respond: func(int32) (any, error) { return "down", nil }}
		cacheC, err := NewCache(testURL, time.Hour, failing, WithStore(NewRedisStore(client, "jwks:")))
		require.NoError(t, err)
		cacheC.now = func() time.Time { return clock.Now().Add(2 * time.Hour) }

		set, err := cacheC.Get(context.Background(), false)
		require.NoError(t, err)
		_, found := set.LookupKeyID("shared")
		assert.True(t, found)
		assert.Equal(t, int32(1), failing.count())
	})
}
