package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 3 * time.Second

// RedisOptions holds the connection settings
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key
	Prefix string
}

// RedisProvider is a Provider backed by redis, values stored as JSON
type RedisProvider struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisProvider connects and pings redis
func NewRedisProvider(ctx context.Context, opts RedisOptions) (*RedisProvider, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultRedisTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connect %s: %w", opts.Addr, err)
	}

	return &RedisProvider{rdb: rdb, prefix: opts.Prefix, timeout: defaultRedisTimeout}, nil
}

// Client exposes the underlying redis client
func (p *RedisProvider) Client() *redis.Client {
	return p.rdb
}

// Set stores value as JSON under key
func (p *RedisProvider) Set(key string, value any, expiration time.Duration) error {
	if p == nil || p.rdb == nil {
		return errors.New("redis not initialized")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if expiration < 0 {
		expiration = 0
	}
	return p.rdb.Set(ctx, p.prefix+key, data, expiration).Err()
}

// Get decodes the value at key into dest, or returns ErrMiss
func (p *RedisProvider) Get(key string, dest any) error {
	if p == nil || p.rdb == nil {
		return errors.New("redis not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	data, err := p.rdb.Get(ctx, p.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Delete removes key
func (p *RedisProvider) Delete(key string) error {
	if p == nil || p.rdb == nil {
		return errors.New("redis not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.rdb.Del(ctx, p.prefix+key).Err()
}

// Exists checks whether key is present
func (p *RedisProvider) Exists(key string) bool {
	if p == nil || p.rdb == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	n, err := p.rdb.Exists(ctx, p.prefix+key).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// Close closes the redis connection pool
func (p *RedisProvider) Close() error {
	if p != nil && p.rdb != nil {
		return p.rdb.Close()
	}
	return nil
}
