package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/yash-surviantllc/FixRx-sub003/src/infra/config"
)

const (
	scanBatch = 200
	delBatch  = 500
)

// RedisBackend stores entries in Redis. Every call goes through a circuit
// breaker so an unreachable server fails fast instead of stalling callers on
// dial timeouts.
type RedisBackend struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend creates the client. It does not dial; the first command does.
func NewRedisBackend(cfg config.RedisConfig, log *slog.Logger) *RedisBackend {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
	})

	return &RedisBackend{client: client, breaker: breaker}
}

// State reports the circuit breaker state.
func (r *RedisBackend) State() gobreaker.State {
	return r.breaker.State()
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.client.Set(ctx, key, value, ttl).Err()
	})
	return err
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.breaker.Execute(func() (any, error) {
		b, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return b, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) (bool, error) {
	v, err := r.breaker.Execute(func() (any, error) {
		return r.client.Del(ctx, key).Result()
	})
	if err != nil {
		return false, err
	}
	return v.(int64) > 0, nil
}

// Flush walks the keyspace with SCAN MATCH and deletes in batches. Keys that
// expire between SCAN and DEL are not counted. When a later batch fails the
// keys already removed are still reported alongside the error.
func (r *RedisBackend) Flush(ctx context.Context, pattern string) (int, error) {
	v, err := r.breaker.Execute(func() (any, error) {
		var keys []string
		iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return 0, fmt.Errorf("scan %q: %w", pattern, err)
		}

		var removed int64
		for start := 0; start < len(keys); start += delBatch {
			end := min(start+delBatch, len(keys))
			n, err := r.client.Del(ctx, keys[start:end]...).Result()
			if err != nil {
				return int(removed), err
			}
			removed += n
		}
		return int(removed), nil
	})
	n, _ := v.(int)
	return n, err
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.client.Ping(ctx).Err()
	})
	return err
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
