// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/authgate/authgate/internal/auth"
)

// MockSessionRepository is a mock type for the SessionRepository interface.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a new instance of MockSessionRepository.
// It also registers a testing interface on the mock and a cleanup function
// to assert the mock's expectations.
func NewMockSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Create provides a mock function with given fields: ctx, session.
func (m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	ret := m.Called(ctx, session)
	return ret.Error(0)
}

// GetByTokenHash provides a mock function with given fields: ctx, tokenHash.
func (m *MockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	ret := m.Called(ctx, tokenHash)

	var r0 *auth.Session
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.Session)
	}
	return r0, ret.Error(1)
}

// Invalidate provides a mock function with given fields: ctx, tokenHash.
func (m *MockSessionRepository) Invalidate(ctx context.Context, tokenHash string) error {
	ret := m.Called(ctx, tokenHash)
	return ret.Error(0)
}

var _ auth.SessionRepository = (*MockSessionRepository)(nil)
