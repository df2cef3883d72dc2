package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/env"
)

// ErrMiss is returned by Store.Get when the key does not exist.
var ErrMiss = redis.Nil

var client *redis.Client

// SetupCache initializes the connection to the Redis cache server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to cache: %v", err)
	} else {
		log.Infof("[Cache] Successfully connected to cache: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Store is a context-aware view on a Redis client, used by packages that
// accept their cache as a dependency.
type Store struct {
	client *redis.Client
}

// NewStore wraps c. A nil client falls back to the global client.
func NewStore(c *redis.Client) *Store {
	return &Store{client: c}
}

func (s *Store) redis() *redis.Client {
	if s.client != nil {
		return s.client
	}
	return GetClient()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.redis().Get(ctx, key).Result()
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.redis().Set(ctx, key, value, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.redis().Del(ctx, keys...).Err()
}

// IsMiss reports whether err means the key was absent.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}
