package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"validoc/internal/domain"
)

// MockDocumentRecordRepo is a mock implementation of port.DocumentRecordRepository.
type MockDocumentRecordRepo struct {
	mock.Mock
}

func (m *MockDocumentRecordRepo) Create(ctx context.Context, rec *domain.DocumentRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockDocumentRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRecordRepo) List(ctx context.Context, offset, limit int) ([]domain.DocumentRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.DocumentRecord), args.Int(1), args.Error(2)
}

func (m *MockDocumentRecordRepo) ListAll(ctx context.Context) ([]domain.DocumentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRecordRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.DocumentRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRecordRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRecordRepo) UpdateVerdict(ctx context.Context, rec *domain.DocumentRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockDocumentRecordRepo) MarkFailed(ctx context.Context, rec *domain.DocumentRecord, procErr string) error {
	args := m.Called(ctx, rec, procErr)
	return args.Error(0)
}

func (m *MockDocumentRecordRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
