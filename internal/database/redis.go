package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPingTimeout bounds the startup check when none is configured.
const DefaultRedisPingTimeout = 3 * time.Second

// ConnectRedis configures a Redis client using the supplied URL and checks
// that it answers a PING within pingTimeout. The client backs participant
// sessions, the intake limiter and the analytics cache, so an unreachable
// server fails startup rather than the first intake.
func ConnectRedis(ctx context.Context, url string, pingTimeout time.Duration) (*redis.Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}
	if pingTimeout <= 0 {
		pingTimeout = DefaultRedisPingTimeout
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", options.Addr, err)
	}

	return client, nil
}
