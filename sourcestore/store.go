// Package sourcestore keeps named diagram sources in Redis. It stores the
// input text only; rendered artifacts live in the in-process render cache and
// are never written here.
package sourcestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kengibson1111/go-diagram-render-cache/internal"
)

// Config is the Redis configuration used by the store.
type Config = internal.RedisConfig

// DefaultConfig returns the default Redis configuration.
func DefaultConfig() *Config {
	return internal.DefaultRedisConfig()
}

// RedisStore is a Redis-backed store of diagram sources.
type RedisStore struct {
	client    internal.RedisClientInterface
	keyGen    internal.KeyGenerator
	validator *internal.InputValidator
	config    *Config
}

// New creates a Redis-backed source store.
func New(config *Config) (*RedisStore, error) {
	if config == nil {
		config = DefaultConfig()
	}

	client, err := internal.NewRedisClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return NewWithDependencies(client, internal.NewKeyGenerator(), config), nil
}

// NewWithDependencies creates a store with injected dependencies for testing
func NewWithDependencies(client internal.RedisClientInterface, keyGen internal.KeyGenerator, config *Config) *RedisStore {
	return &RedisStore{
		client:    client,
		keyGen:    keyGen,
		validator: internal.NewInputValidator(),
		config:    config,
	}
}

// Store saves source under name. A ttl of zero uses the configured default,
// which itself defaults to keeping the source forever.
func (s *RedisStore) Store(ctx context.Context, name, source string, ttl time.Duration) error {
	if err := s.validator.ValidateContext(ctx); err != nil {
		return err
	}

	key, err := s.key(name)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateSource(source, "diagram source"); err != nil {
		return err
	}

	if err := s.validator.ValidateTTL(ttl); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = s.config.DefaultTTL
	}

	if err := s.client.SetWithRetry(ctx, key, source, ttl); err != nil {
		return classify(err, key, "store diagram source")
	}

	return nil
}

// Get returns the source stored under name.
func (s *RedisStore) Get(ctx context.Context, name string) (string, error) {
	if err := s.validator.ValidateContext(ctx); err != nil {
		return "", err
	}

	key, err := s.key(name)
	if err != nil {
		return "", err
	}

	source, err := s.client.GetWithRetry(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", internal.NewNotFoundError(key)
		}
		return "", classify(err, key, "retrieve diagram source")
	}

	return source, nil
}

// Delete removes the source stored under name. Deleting a missing source is
// not an error.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := s.validator.ValidateContext(ctx); err != nil {
		return err
	}

	key, err := s.key(name)
	if err != nil {
		return err
	}

	if err := s.client.DelWithRetry(ctx, key); err != nil {
		return classify(err, key, "delete diagram source")
	}

	return nil
}

// Health checks the Redis connection.
func (s *RedisStore) Health(ctx context.Context) error {
	if err := s.client.HealthWithRetry(ctx); err != nil {
		return classify(err, "", "health check")
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(name string) (string, error) {
	name, err := s.validator.ValidateName(name, "diagram name")
	if err != nil {
		return "", err
	}

	key := s.keyGen.DiagramKey(name)
	if err := s.keyGen.ValidateKey(key); err != nil {
		return "", internal.NewKeyInvalidError(key, fmt.Sprintf("invalid key generated: %v", err))
	}
	return key, nil
}

func classify(err error, key, op string) error {
	switch {
	case isTimeoutError(err):
		return internal.NewTimeoutError(key, "timeout during "+op, err)
	case isConnectionError(err):
		return internal.NewConnectionError("failed to "+op, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"broken pipe",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
