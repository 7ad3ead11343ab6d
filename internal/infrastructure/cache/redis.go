package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// OpenRedis connects the idempotency store and fails fast when it is down.
func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: pingTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := Ping(ctx, r); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// Ping backs the /health probe.
func Ping(ctx context.Context, r redis.UniversalClient) error {
	return r.Ping(ctx).Err()
}
