package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "cache:"
	bucketSet   = "cache_buckets"
	scanCount   = 256
	deleteBatch = 128
)

// BucketStore is the persistence contract for versioned cache buckets.
type BucketStore interface {
	Put(ctx context.Context, bucket, key string, entry *Entry) error
	Match(ctx context.Context, bucket, key string) (*Entry, bool, error)
	Buckets(ctx context.Context) ([]string, error)
	DeleteBucket(ctx context.Context, bucket string) error
}

// NewRedisClient creates a go-redis client from a URL
// (e.g. "redis://localhost:6379") and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// RedisStore keeps buckets in Redis under "cache:<bucket>:<key>" with a
// bucket registry set, so enumeration does not depend on key scans alone.
type RedisStore struct {
	rdb goredis.Cmdable
}

var _ BucketStore = (*RedisStore)(nil)

func NewRedisStore(rdb goredis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Put(ctx context.Context, bucket, key string, entry *Entry) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, bucketSet, bucket)
	pipe.Set(ctx, entryKey(bucket, key), encoded, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Match(ctx context.Context, bucket, key string) (*Entry, bool, error) {
	data, err := s.rdb.Get(ctx, entryKey(bucket, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry: %w", err)
	}
	return &entry, true, nil
}

func (s *RedisStore) Buckets(ctx context.Context) ([]string, error) {
	buckets, err := s.rdb.SMembers(ctx, bucketSet).Result()
	if err != nil {
		return nil, fmt.Errorf("listing cache buckets: %w", err)
	}
	return buckets, nil
}

func (s *RedisStore) DeleteBucket(ctx context.Context, bucket string) error {
	var cursor uint64
	pattern := keyPrefix + bucket + ":*"

	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return fmt.Errorf("scanning bucket %s: %w", bucket, err)
		}
		for start := 0; start < len(keys); start += deleteBatch {
			end := min(start+deleteBatch, len(keys))
			if err := s.rdb.Del(ctx, keys[start:end]...).Err(); err != nil {
				return fmt.Errorf("deleting bucket %s entries: %w", bucket, err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if err := s.rdb.SRem(ctx, bucketSet, bucket).Err(); err != nil {
		return fmt.Errorf("deregistering bucket %s: %w", bucket, err)
	}
	return nil
}

func entryKey(bucket, key string) string {
	return keyPrefix + bucket + ":" + key
}
