package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is absent or expired
var ErrNotFound = errors.New("key not found in cache")

const keyPrefix = "elearning:"

// Store is a small Redis-backed store for short-lived counters, locks and cached reports.
// Every key is namespaced so the instance can be shared with other services.
type Store struct {
	client *redis.Client
}

// Connect parses redisURL, pings the server and returns a ready store
func Connect(ctx context.Context, redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return New(client), nil
}

// New wraps an existing client
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(k string) string { return keyPrefix + k }

func keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = key(k)
	}
	return out
}

// Flag sets k for ttl. Used for lockouts where only presence matters.
func (s *Store) Flag(ctx context.Context, k string, ttl time.Duration) error {
	return s.client.Set(ctx, key(k), 1, ttl).Err()
}

// Flagged reports whether k is set and how long it remains
func (s *Store) Flagged(ctx context.Context, k string) (bool, time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key(k)).Result()
	if err != nil {
		return false, 0, err
	}
	// -2 means missing; -1 means no expiry
	if ttl == -2 {
		return false, 0, nil
	}
	if ttl < 0 {
		ttl = 0
	}
	return true, ttl, nil
}

// Count increments k and starts its window on the first hit
func (s *Store) Count(ctx context.Context, k string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key(k))
	pipe.ExpireNX(ctx, key(k), window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Delete removes keys
func (s *Store) Delete(ctx context.Context, ks ...string) error {
	return s.client.Del(ctx, keys(ks)...).Err()
}

// Load decodes the JSON value stored at k into dest
func (s *Store) Load(ctx context.Context, k string, dest interface{}) error {
	raw, err := s.client.Get(ctx, key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Save stores value at k as JSON
func (s *Store) Save(ctx context.Context, k string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(k), raw, ttl).Err()
}

// Remember returns the cached value at k, or builds it and caches the result.
// A nil store always builds. Cache failures are reported through onErr and never
// fail the call.
func Remember[T any](ctx context.Context, s *Store, k string, ttl time.Duration, build func(context.Context) (*T, error), onErr func(error)) (*T, error) {
	if s != nil {
		var cached T
		err := s.Load(ctx, k, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, ErrNotFound) && onErr != nil {
			onErr(err)
		}
	}

	value, err := build(ctx)
	if err != nil {
		return nil, err
	}

	if s != nil {
		if err := s.Save(ctx, k, value, ttl); err != nil && onErr != nil {
			onErr(err)
		}
	}
	return value, nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}
