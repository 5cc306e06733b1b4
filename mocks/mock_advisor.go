package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockAdvisor is a mock implementation of port.Advisor.
type MockAdvisor struct {
	mock.Mock
}

func (m *MockAdvisor) Review(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
