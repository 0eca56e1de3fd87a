// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Password validation constraints.
const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// MaxPasswordBytes is the bcrypt input limit. Longer passwords would be
	// silently truncated by the hash, so they are rejected up front.
	MaxPasswordBytes = 72
)

// emailRegex matches the email shape accepted at registration: a dot-atom
// local part followed by one or more dot-separated domain labels. Lowercase
// only; callers are expected to normalize case before validation if they
// want case-insensitive addresses.
var emailRegex = regexp.MustCompile("^[a-z0-9!#$%&'*+/=?^_`{|}~-]+(?:\\.[a-z0-9!#$%&'*+/=?^_`{|}~-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$")

// Account represents a registered user identity. Email is immutable after
// creation; PasswordHash changes only through a password-change flow.
type Account struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates a validated Account with a fresh ID.
// The password hash must already be produced by a PasswordHasher.
func NewAccount(email, passwordHash string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_ACCOUNT").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateEmail validates an email address against the registration pattern.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_VALIDATION_FAILED").
			Wrapf(ErrInvalidInput, "email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_VALIDATION_FAILED").
			Wrapf(ErrInvalidInput, "email address is not valid")
	}
	return nil
}

// ValidatePassword validates a candidate password against length rules.
func ValidatePassword(password string) error {
	if password == "" {
		return oops.Code("AUTH_VALIDATION_FAILED").
			Wrapf(ErrInvalidInput, "password cannot be empty")
	}
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_VALIDATION_FAILED").
			With("min", MinPasswordLength).
			Wrapf(ErrInvalidInput, "password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return oops.Code("AUTH_VALIDATION_FAILED").
			With("max", MaxPasswordBytes).
			Wrapf(ErrInvalidInput, "password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns an error wrapping
	// ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	// Returns an error wrapping ErrNotFound if no account matches.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by its exact email.
	// Returns an error wrapping ErrNotFound if no account matches.
	GetByEmail(ctx context.Context, email string) (*Account, error)
}
