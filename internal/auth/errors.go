// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when an account with the same email
// already exists. The accounts table enforces email uniqueness; repository
// implementations map that constraint violation to this error.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrTokenConflict is returned when a session token hash collides with an
// existing session. The generator draws 256 bits of entropy per token, so a
// collision indicates a generator defect rather than bad luck, but the
// condition is still handled: the service retries once with a fresh token.
var ErrTokenConflict = errors.New("session token conflict")

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password. The two cases are deliberately indistinguishable to avoid
// account enumeration.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidInput is the root of all registration and login input
// validation failures. Wrapped errors carry the user-correctable detail.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnauthenticated marks a missing, unknown, invalidated, or expired
// session. It is a normal state transition, not a dependency fault.
var ErrUnauthenticated = errors.New("unauthenticated")
