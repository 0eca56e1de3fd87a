// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

// Package mocks provides hand-written testify doubles for the package's
// interfaces, for use in unit tests.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/authgate/authgate/internal/auth"
)

// MockAccountRepository is a mock type for the AccountRepository interface.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a new instance of MockAccountRepository.
// It also registers a testing interface on the mock and a cleanup function
// to assert the mock's expectations.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Create provides a mock function with given fields: ctx, account.
func (m *MockAccountRepository) Create(ctx context.Context, account *auth.Account) error {
	ret := m.Called(ctx, account)
	return ret.Error(0)
}

// GetByID provides a mock function with given fields: ctx, id.
func (m *MockAccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	ret := m.Called(ctx, id)

	var r0 *auth.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.Account)
	}
	return r0, ret.Error(1)
}

// GetByEmail provides a mock function with given fields: ctx, email.
func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	ret := m.Called(ctx, email)

	var r0 *auth.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.Account)
	}
	return r0, ret.Error(1)
}

var _ auth.AccountRepository = (*MockAccountRepository)(nil)
