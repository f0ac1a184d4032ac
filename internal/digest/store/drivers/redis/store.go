package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/internal/digest/store"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every token key.
const KeyPrefix = "dailydigest:token:"

// Config describes how to reach Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store keeps the cached token as a JSON value under a single key. Keys never
// expire, a stale token must still be around for the fallback path.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore connects to Redis and checks it answers.
func NewStore(ctx context.Context, cfg Config, provider string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}

	return &Store{client: client, key: KeyPrefix + provider}, nil
}

// Key returns the Redis key the token lives under.
func (s *Store) Key() string { return s.key }

func (s *Store) Read(ctx context.Context) (domain.CachedToken, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CachedToken{}, store.ErrNotFound
		}
		return domain.CachedToken{}, fmt.Errorf("redis: get %s: %w", s.key, err)
	}

	var t domain.CachedToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return domain.CachedToken{}, fmt.Errorf("redis: parse %s: %w", s.key, err)
	}
	return t, nil
}

func (s *Store) Write(ctx context.Context, t domain.CachedToken) error {
	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("redis: encode token: %w", err)
	}

	// 0 expiration means the key persists
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) Close() error { return s.client.Close() }
