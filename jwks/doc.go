/*
Package jwks caches a remote JSON Web Key Set.

A Cache belongs to exactly one JWKS URL. Within its lifetime a cached set is
served without touching the network; once it expires, or when a refresh is
forced, the set is fetched again through the transport package.

# Stale on failure

A failed or malformed refresh never discards a set that was fetched before:
the previous set is served unchanged and its fetch time is left alone, so the
next call tries again. Only a cache that has never held a set reports
ErrFetchFailed. Cancelling the caller's context is not a refresh failure; it
is returned as an error even when a stale set exists.

# Stores

Entries live in a Store keyed by JWKS URL. NewMemoryStore keeps them in the
process; NewRedisStore shares them between processes, so a fleet of
validators fetches each key set once per lifetime:

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	cache, err := jwks.NewCache(
	    jwks.WellKnownURL("tenant.auth0.com"),
	    10*time.Minute,
	    client, // *transport.Client
	    jwks.WithStore(jwks.NewRedisStore(rdb, "jwks:")),
	)
	if err != nil {
	    log.Fatal(err)
	}

	set, err := cache.Get(ctx, false)

# Concurrency

Fresh reads only take the store's read lock. Refreshes are serialized per
Cache, and a caller that waited for another caller's refresh re-checks the
store before fetching again, so a burst of expired reads costs one request.
*/
package jwks
