package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis backend.  Addr may be "host:port" or a
// redis:// or rediss:// URL; credentials, DB index, and TLS in the URL are
// honoured.  Non-zero Password and DB override the URL.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

const redisConnectTimeout = 5 * time.Second

// Redis is a RawCache backed by go-redis.
type Redis struct {
	client *redis.Client
}

// NewRedis connects and pings the server before returning.
func NewRedis(opts RedisOptions) (*Redis, error) {
	ro, err := clientOptions(opts)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(ro)

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Redis{client: client}, nil
}

func clientOptions(opts RedisOptions) (*redis.Options, error) {
	ro := &redis.Options{Addr: opts.Addr}
	if strings.HasPrefix(opts.Addr, "redis://") || strings.HasPrefix(opts.Addr, "rediss://") {
		parsed, err := redis.ParseURL(opts.Addr)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		ro = parsed
	}
	if opts.Password != "" {
		ro.Password = opts.Password
	}
	if opts.DB != 0 {
		ro.DB = opts.DB
	}
	return ro, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
