package internal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration parameters for the diagram source store
type RedisConfig struct {
	// Redis connection settings
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr" koanf:"redis_addr"`             // Redis server address (host:port)
	RedisPassword string `json:"redis_password" yaml:"redis_password" koanf:"redis_password"` // Redis password (optional)
	RedisDB       int    `json:"redis_db" yaml:"redis_db" koanf:"redis_db"`                   // Redis database number

	// Connection pool settings
	MaxRetries   int           `json:"max_retries" yaml:"max_retries" koanf:"max_retries"`       // Maximum number of retries
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout" koanf:"dial_timeout"`    // Timeout for establishing connection
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" koanf:"read_timeout"`    // Timeout for socket reads
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" koanf:"write_timeout"` // Timeout for socket writes
	PoolSize     int           `json:"pool_size" yaml:"pool_size" koanf:"pool_size"`             // Maximum number of socket connections

	// Store settings
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" koanf:"default_ttl"` // Default time-to-live for stored sources, 0 keeps them

	// Resilience settings
	RetryConfig *RetryConfig `json:"retry_config" yaml:"retry_config" koanf:"retry_config"`
}

// RetryConfig defines retry behavior with exponential backoff
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts" yaml:"max_attempts" koanf:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay" koanf:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay" yaml:"max_delay" koanf:"max_delay"`
	Multiplier   float64       `json:"multiplier" yaml:"multiplier" koanf:"multiplier"`
	Jitter       bool          `json:"jitter" yaml:"jitter" koanf:"jitter"`
	RetryableOps []string      `json:"retryable_ops" yaml:"retryable_ops" koanf:"retryable_ops"`
}

// DefaultRetryConfig returns a RetryConfig with sensible default values
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		RetryableOps: []string{"ping", "get", "set", "del"},
	}
}

// DefaultRedisConfig returns a RedisConfig with sensible default values
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		RedisAddr:     "localhost:6379",
		RedisPassword: "",
		RedisDB:       0,
		MaxRetries:    3,
		DialTimeout:   5 * time.Second,
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		PoolSize:      10,
		DefaultTTL:    0,
		RetryConfig:   DefaultRetryConfig(),
	}
}

// RedisClientInterface defines the interface for Redis client operations
type RedisClientInterface interface {
	HealthWithRetry(ctx context.Context) error
	SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetWithRetry(ctx context.Context, key string) (string, error)
	DelWithRetry(ctx context.Context, keys ...string) error
	Config() *RedisConfig
	Close() error
}

// RedisClient wraps the go-redis client with retry support
type RedisClient struct {
	client *redis.Client
	config *RedisConfig
}

// NewRedisClient creates a new Redis client with the provided configuration
func NewRedisClient(config *RedisConfig) (*RedisClient, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	if err := ValidateRedisConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
	})

	return &RedisClient{
		client: client,
		config: config,
	}, nil
}

// ValidateRedisConfig validates the Redis configuration parameters
func ValidateRedisConfig(config *RedisConfig) error {
	if config.RedisAddr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}

	if config.RedisDB < 0 || config.RedisDB > 15 {
		return fmt.Errorf("redis database must be between 0 and 15, got %d", config.RedisDB)
	}

	if config.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got %d", config.MaxRetries)
	}

	if config.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive, got %v", config.DialTimeout)
	}

	if config.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", config.ReadTimeout)
	}

	if config.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", config.WriteTimeout)
	}

	if config.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive, got %d", config.PoolSize)
	}

	if config.DefaultTTL < 0 {
		return fmt.Errorf("default TTL cannot be negative, got %v", config.DefaultTTL)
	}

	if config.RetryConfig != nil {
		if err := validateRetryConfig(config.RetryConfig); err != nil {
			return fmt.Errorf("invalid retry configuration: %w", err)
		}
	}

	return nil
}

// validateRetryConfig validates the retry configuration parameters
func validateRetryConfig(config *RetryConfig) error {
	if config.MaxAttempts < 0 {
		return fmt.Errorf("max attempts cannot be negative, got %d", config.MaxAttempts)
	}

	if config.InitialDelay < 0 {
		return fmt.Errorf("initial delay cannot be negative, got %v", config.InitialDelay)
	}

	if config.MaxDelay < 0 {
		return fmt.Errorf("max delay cannot be negative, got %v", config.MaxDelay)
	}

	if config.Multiplier < 1.0 {
		return fmt.Errorf("multiplier must be >= 1.0, got %f", config.Multiplier)
	}

	if config.InitialDelay > config.MaxDelay {
		return fmt.Errorf("initial delay (%v) cannot be greater than max delay (%v)", config.InitialDelay, config.MaxDelay)
	}

	return nil
}

// Health performs a health check on the Redis connection
func (rc *RedisClient) Health(ctx context.Context) error {
	pong, err := rc.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	if pong != "PONG" {
		return fmt.Errorf("unexpected ping response: %s", pong)
	}

	return nil
}

// Config returns the Redis client configuration
func (rc *RedisClient) Config() *RedisConfig {
	return rc.config
}

// Close closes the Redis client connection
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// IsRetryableError determines if an error should trigger a retry
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"network is unreachable",
		"no route to host",
		"broken pipe",
		"i/o timeout",
		"loading",
		"busy",
		"tryagain",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

// isOperationRetryable checks if the given operation should be retried
func (rc *RedisClient) isOperationRetryable(operation string) bool {
	if rc.config.RetryConfig == nil {
		return false
	}
	return slices.Contains(rc.config.RetryConfig.RetryableOps, operation)
}

// calculateBackoffDelay calculates the delay for the next retry attempt
func (rc *RedisClient) calculateBackoffDelay(attempt int) time.Duration {
	if rc.config.RetryConfig == nil {
		return time.Second
	}

	config := rc.config.RetryConfig

	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		delay += rand.Float64() * 0.1 * delay // 10% jitter
	}

	return time.Duration(delay)
}

// executeWithRetry executes a function with retry logic
func (rc *RedisClient) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	if !rc.isOperationRetryable(operation) {
		return fn()
	}

	var lastErr error
	maxAttempts := max(rc.config.RetryConfig.MaxAttempts, 1)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !IsRetryableError(err) {
			return err
		}

		if attempt == maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rc.calculateBackoffDelay(attempt)):
		}
	}

	return fmt.Errorf("operation '%s' failed after %d attempts: %w", operation, maxAttempts, lastErr)
}

// HealthWithRetry performs a health check with retry logic
func (rc *RedisClient) HealthWithRetry(ctx context.Context) error {
	return rc.executeWithRetry(ctx, "ping", func() error {
		return rc.Health(ctx)
	})
}

// SetWithRetry performs a SET operation with retry logic
func (rc *RedisClient) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return rc.executeWithRetry(ctx, "set", func() error {
		return rc.client.Set(ctx, key, value, expiration).Err()
	})
}

// GetWithRetry performs a GET operation with retry logic
func (rc *RedisClient) GetWithRetry(ctx context.Context, key string) (string, error) {
	var result string
	err := rc.executeWithRetry(ctx, "get", func() error {
		val, err := rc.client.Get(ctx, key).Result()
		if err != nil {
			return err
		}
		result = val
		return nil
	})
	return result, err
}

// DelWithRetry performs a DEL operation with retry logic
func (rc *RedisClient) DelWithRetry(ctx context.Context, keys ...string) error {
	return rc.executeWithRetry(ctx, "del", func() error {
		return rc.client.Del(ctx, keys...).Err()
	})
}
