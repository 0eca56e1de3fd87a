// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/authgate/authgate/internal/auth"
)

// MockPasswordHasher is a mock type for the PasswordHasher interface.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a new instance of MockPasswordHasher.
// It also registers a testing interface on the mock and a cleanup function
// to assert the mock's expectations.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Hash provides a mock function with given fields: password.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Verify provides a mock function with given fields: password, hash.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	ret := m.Called(password, hash)
	return ret.Bool(0), ret.Error(1)
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)
