// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

// Package mocks provides hand-written testify doubles for the package's
// interfaces, for use in unit tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/web"
)

// MockAuthService is a mock type for the AuthService interface.
type MockAuthService struct {
	mock.Mock
}

// NewMockAuthService creates a new instance of MockAuthService.
// It also registers a testing interface on the mock and a cleanup function
// to assert the mock's expectations.
func NewMockAuthService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAuthService {
	m := &MockAuthService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Register provides a mock function with given fields: ctx, email, password, passwordConfirm.
func (m *MockAuthService) Register(ctx context.Context, email, password, passwordConfirm string) (*auth.Account, *auth.Session, string, error) {
	ret := m.Called(ctx, email, password, passwordConfirm)

	var account *auth.Account
	if ret.Get(0) != nil {
		account = ret.Get(0).(*auth.Account)
	}
	var session *auth.Session
	if ret.Get(1) != nil {
		session = ret.Get(1).(*auth.Session)
	}
	return account, session, ret.String(2), ret.Error(3)
}

// Login provides a mock function with given fields: ctx, email, password.
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, string, error) {
	ret := m.Called(ctx, email, password)

	var session *auth.Session
	if ret.Get(0) != nil {
		session = ret.Get(0).(*auth.Session)
	}
	return session, ret.String(1), ret.Error(2)
}

// ValidateSession provides a mock function with given fields: ctx, token.
func (m *MockAuthService) ValidateSession(ctx context.Context, token string) (*auth.Account, *auth.Session, error) {
	ret := m.Called(ctx, token)

	var account *auth.Account
	if ret.Get(0) != nil {
		account = ret.Get(0).(*auth.Account)
	}
	var session *auth.Session
	if ret.Get(1) != nil {
		session = ret.Get(1).(*auth.Session)
	}
	return account, session, ret.Error(2)
}

// Logout provides a mock function with given fields: ctx, token.
func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	ret := m.Called(ctx, token)
	return ret.Error(0)
}

var _ web.AuthService = (*MockAuthService)(nil)
