package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/CriativoDevs/salonix-gateway/internal/cache"
	"github.com/CriativoDevs/salonix-gateway/internal/gateway"
)

func main() {
	var (
		redisURL = flag.String("redis", os.Getenv("REDIS_URL"), "Redis URL (or set REDIS_URL env)")
		keep     = flag.String("keep", os.Getenv("CACHE_VERSION"), "Cache version to keep (or set CACHE_VERSION env)")
		dryRun   = flag.Bool("dry-run", false, "Dry run mode (don't delete anything)")
		verbose  = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *redisURL == "" {
		log.Fatal("Redis URL required (--redis or REDIS_URL env)")
	}
	if *keep == "" {
		log.Fatal("Cache version required (--keep or CACHE_VERSION env)")
	}

	// Configure logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := cache.NewRedisClient(ctx, *redisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer client.Close()
	slog.Info("Connected to Redis", "url", sanitizeURL(*redisURL))

	store := cache.NewRedisStore(client)
	if err := purgeStaleBuckets(ctx, store, gateway.BucketName(*keep), *dryRun); err != nil {
		log.Fatalf("Purge failed: %v", err)
	}

	slog.Info("Purge complete")
}

// purgeStaleBuckets deletes every cache bucket except the one to keep,
// mirroring what a worker does at activation.
func purgeStaleBuckets(ctx context.Context, store cache.BucketStore, keep string, dryRun bool) error {
	start := time.Now()

	buckets, err := store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list buckets: %w", err)
	}

	var purged, kept int
	for _, bucket := range buckets {
		if bucket == keep {
			kept++
			slog.Debug("Keeping bucket", "bucket", bucket)
			continue
		}
		if dryRun {
			slog.Info("Would delete bucket", "bucket", bucket)
			purged++
			continue
		}
		if err := store.DeleteBucket(ctx, bucket); err != nil {
			return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
		}
		slog.Info("Deleted bucket", "bucket", bucket)
		purged++
	}

	slog.Info("Purge summary",
		"total", len(buckets),
		"purged", purged,
		"kept", kept,
		"dry_run", dryRun,
		"duration", time.Since(start).String(),
	)
	return nil
}

// sanitizeURL strips credentials before logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	if u.User != nil {
		u.User = url.UserPassword("***", "***")
	}
	return u.String()
}
