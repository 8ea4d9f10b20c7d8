package storage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

// NewMockStore creates a new mock history store
func NewMockStore(t mock.TestingT) *MockStore {
	m := &MockStore{}
	m.Test(t)
	return m
}

// Append mocks the Append method
func (m *MockStore) Append(ctx context.Context, record *entities.OwnedCard) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Recent mocks the Recent method
func (m *MockStore) Recent(ctx context.Context, userID string, limit int) ([]*entities.OwnedCard, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.OwnedCard), args.Error(1)
}

// CleanupOld mocks the CleanupOld method
func (m *MockStore) CleanupOld(ctx context.Context, maxAge time.Duration) error {
	args := m.Called(ctx, maxAge)
	return args.Error(0)
}
