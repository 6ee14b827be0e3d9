package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// NonceStore is a testify mock for ports.NonceStore.
type NonceStore struct {
	mock.Mock
}

func (m *NonceStore) Add(ctx context.Context, token string) (bool, error) {
	ret := m.Called(ctx, token)
	return ret.Bool(0), ret.Error(1)
}

// NewNonceStore creates a mock and asserts its expectations on cleanup.
func NewNonceStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *NonceStore {
	m := &NonceStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
