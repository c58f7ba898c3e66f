package redisx

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// URLCache caches presigned blob URLs so hot pages don't re-sign on
// every request. Optional: a nil *URLCache is a no-op.
type URLCache struct {
	log    *logger.Logger
	client *goredis.Client
	prefix string
}

// NewURLCache returns (nil, nil) when REDIS_ADDR is unset; callers treat
// a nil cache as disabled.
func NewURLCache(log *logger.Logger) (*URLCache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	cacheLog := log.With("service", "URLCache")
	cacheLog.Info("Redis URL cache enabled", "addr", addr)
	return &URLCache{
		log:    cacheLog,
		client: client,
		prefix: "presigned:",
	}, nil
}

func (c *URLCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores the URL for ttl minus a safety margin so callers never
// serve a URL that expires mid-flight.
func (c *URLCache) Set(ctx context.Context, key, url string, ttl time.Duration) {
	if c == nil || url == "" {
		return
	}
	margin := 30 * time.Second
	if ttl <= margin {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, url, ttl-margin).Err(); err != nil {
		c.log.Warn("URL cache set failed", "key", key, "error", err)
	}
}
