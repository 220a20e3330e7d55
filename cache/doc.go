// Package cache instruments go-redis clients with loom spans.
//
// Hook implements redis.Hook. Registered on a client, it turns every
// command into a CLIENT span carrying the cache.op / cache.key attributes,
// with cache misses recorded as a cache.hit=false attribute rather than an
// error; a miss is a normal outcome, not a failure.
//
//	client := redis.NewClient(&redis.Options{Addr: addr})
//	client.AddHook(cache.NewHook(tracer, cache.Config{RecordKeys: true}))
package cache
