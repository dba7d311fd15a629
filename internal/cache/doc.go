// Package cache implements the versioned bucket store behind the gateway's
// offline layer.
//
// A bucket is a named collection of cached request/response snapshots,
// versioned as a unit; the version token embedded in the bucket name is the
// sole invalidation mechanism. Two implementations exist: RedisStore for
// production (buckets shared across gateway replicas) and MemoryStore for
// tests and single-node deployments.
package cache
