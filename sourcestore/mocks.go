package sourcestore

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kengibson1111/go-diagram-render-cache/internal"
)

// MockRedisClient is a mock implementation of the RedisClientInterface for testing
type MockRedisClient struct {
	mock.Mock
}

// NewMockRedisClient creates a new mock Redis client
func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{}
}

// HealthWithRetry mocks the HealthWithRetry method
func (m *MockRedisClient) HealthWithRetry(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// SetWithRetry mocks the SetWithRetry method
func (m *MockRedisClient) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

// GetWithRetry mocks the GetWithRetry method
func (m *MockRedisClient) GetWithRetry(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// DelWithRetry mocks the DelWithRetry method
func (m *MockRedisClient) DelWithRetry(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// Config mocks the Config method
func (m *MockRedisClient) Config() *internal.RedisConfig {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*internal.RedisConfig)
}

// Close mocks the Close method
func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockKeyGenerator is a mock implementation of the KeyGenerator for testing
type MockKeyGenerator struct {
	mock.Mock
}

// NewMockKeyGenerator creates a new mock key generator
func NewMockKeyGenerator() *MockKeyGenerator {
	return &MockKeyGenerator{}
}

// DiagramKey mocks the DiagramKey method
func (m *MockKeyGenerator) DiagramKey(name string) string {
	args := m.Called(name)
	return args.String(0)
}

// EngineKey mocks the EngineKey method
func (m *MockKeyGenerator) EngineKey(engineName string) string {
	args := m.Called(engineName)
	return args.String(0)
}

// ArtifactKey mocks the ArtifactKey method
func (m *MockKeyGenerator) ArtifactKey(source, theme, view string) string {
	args := m.Called(source, theme, view)
	return args.String(0)
}

// ValidateKey mocks the ValidateKey method
func (m *MockKeyGenerator) ValidateKey(key string) error {
	args := m.Called(key)
	return args.Error(0)
}
