package engine

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEngine is a mock implementation of the Engine interface for testing
type MockEngine struct {
	mock.Mock
}

// NewMockEngine creates a new mock engine
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// Initialize mocks the Initialize method
func (m *MockEngine) Initialize(opts Options) error {
	args := m.Called(opts)
	return args.Error(0)
}

// Render mocks the Render method. The first return value may be a
// func(context.Context, string, string) (*Result, error) to compute the result
// from the arguments.
func (m *MockEngine) Render(ctx context.Context, targetID, source string) (*Result, error) {
	args := m.Called(ctx, targetID, source)

	if fn, ok := args.Get(0).(func(context.Context, string, string) (*Result, error)); ok {
		return fn(ctx, targetID, source)
	}

	var result *Result
	if r := args.Get(0); r != nil {
		result = r.(*Result)
	}
	return result, args.Error(1)
}

// MockContainer is a mock implementation of the Container interface for testing
type MockContainer struct {
	mock.Mock
}

// SetMarkup mocks the SetMarkup method
func (m *MockContainer) SetMarkup(markup string) {
	m.Called(markup)
}
