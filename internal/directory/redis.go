package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/treykane/auth-helper/internal/appconfig"
)

const redisScanCount = 500

// RedisSource reads JSON host records stored under keys matching a pattern.
type RedisSource struct {
	client  *redis.Client
	pattern string
}

// NewRedisSource creates a source for the given connection settings. No
// connection is made until Entries is called.
func NewRedisSource(cfg appconfig.RedisConfig) *RedisSource {
	return &RedisSource{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		pattern: cfg.KeyPattern,
	}
}

func (s *RedisSource) Name() string { return "redis" }

// Entries scans the keyspace and fetches all matching values in one MGET.
func (s *RedisSource) Entries(ctx context.Context) ([]Entry, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.pattern, redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %q: %w", s.pattern, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}
	entries := make([]Entry, 0, len(keys))
	for i, key := range keys {
		raw, ok := vals[i].(string)
		if !ok {
			// Key expired or changed type between SCAN and MGET.
			entries = append(entries, Entry{Key: key, Err: errors.New("value is not a string")})
			continue
		}
		fields, err := DecodeJSON([]byte(raw))
		entries = append(entries, Entry{Key: key, Fields: fields, Err: err})
	}
	return entries, nil
}

func (s *RedisSource) Close() error {
	return s.client.Close()
}
