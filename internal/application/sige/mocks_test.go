package sige

import (
	"context"
	"encoding/json"

	"github.com/autopecas/backend/internal/domain/sige"
	"github.com/stretchr/testify/mock"
)

// MockConnectionRepository is a mock implementation of sige.ConnectionRepository
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) Get(ctx context.Context) (*sige.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sige.Connection), args.Error(1)
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn *sige.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockAuthAPI is a mock implementation of sige.AuthAPI
type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Login(ctx context.Context, creds sige.Credentials) (sige.Token, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(sige.Token), args.Error(1)
}

func (m *MockAuthAPI) Refresh(ctx context.Context, refreshToken string) (sige.Token, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(sige.Token), args.Error(1)
}

// MockAPI is a mock implementation of sige.API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Do(ctx context.Context, req sige.Request) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
