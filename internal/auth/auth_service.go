// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Service provides registration, login, session validation, and logout.
type Service struct {
	accounts AccountRepository
	sessions SessionRepository
	hasher   PasswordHasher
	ttl      time.Duration
	logger   *slog.Logger
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithSessionTTL overrides the default lifetime of issued sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// NewService creates a new Service. Sessions live for SessionTTL unless
// overridden with WithSessionTTL.
func NewService(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, opts ...Option) (*Service, error) {
	return NewServiceWithLogger(accounts, sessions, hasher, slog.Default(), opts...)
}

// NewServiceWithLogger creates a new Service with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, logger *slog.Logger, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("accounts repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	s := &Service{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		ttl:      SessionTTL,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("session ttl must be positive")
	}
	return s, nil
}

// dummyPasswordHash is used when an account doesn't exist to prevent timing
// attacks. We still run password verification to make response time
// consistent. This is NOT a real credential - the digest part is fixed
// filler that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$2a$12$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates an account from the submitted credentials and issues its
// first session. Returns the account, the session, and the plaintext
// bearer token. The account's password hash must never be serialized
// outward by callers.
func (s *Service) Register(ctx context.Context, email, password, passwordConfirm string) (*Account, *Session, string, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, nil, "", err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, nil, "", err
	}
	if passwordConfirm == "" {
		return nil, nil, "", oops.Code("AUTH_VALIDATION_FAILED").
			Wrapf(ErrInvalidInput, "password confirmation cannot be empty")
	}
	if password != passwordConfirm {
		return nil, nil, "", oops.Code("AUTH_VALIDATION_FAILED").
			Wrapf(ErrInvalidInput, "passwords do not match")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(email, hash)
	if err != nil {
		return nil, nil, "", err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, nil, "", oops.Code("AUTH_DUPLICATE_EMAIL").
				With("operation", "create account").
				Wrap(err)
		}
		return nil, nil, "", s.storeFailure("create account", err)
	}

	session, token, err := s.issueSession(ctx, account.ID)
	if err != nil {
		return nil, nil, "", err
	}

	return account, session, token, nil
}

// Login verifies credentials and issues a new session. Each successful
// login mints its own session; prior sessions for the account stay valid.
// Returns the session and the plaintext bearer token.
// Uses constant-time operations to prevent timing-based email enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, string, error) {
	if email == "" {
		return nil, "", oops.Code("AUTH_VALIDATION_FAILED").
			Wrapf(ErrInvalidInput, "email cannot be empty")
	}
	if password == "" {
		return nil, "", oops.Code("AUTH_VALIDATION_FAILED").
			Wrapf(ErrInvalidInput, "password cannot be empty")
	}

	// Look up the account by email. An unknown email is collapsed into the
	// same failure as a wrong password, after verifying against a dummy
	// hash to keep response time flat.
	account, lookupErr := s.accounts.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	accountExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", s.storeFailure("get account by email", lookupErr)
		}
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !accountExists {
			return nil, "", invalidCredentials()
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !accountExists || !valid {
		return nil, "", invalidCredentials()
	}

	return s.issueSession(ctx, account.ID)
}

// ValidateSession checks a bearer token and resolves the owning account.
// A missing, unknown, invalidated, or expired session yields an error
// wrapping ErrUnauthenticated; that is a normal outcome, not a fault.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Account, *Session, error) {
	if token == "" {
		return nil, nil, unauthenticated("no session token supplied")
	}

	tokenHash := HashSessionToken(token)

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, unauthenticated("unknown session token")
		}
		return nil, nil, s.storeFailure("get session by token hash", err)
	}

	if !session.Valid {
		return nil, nil, unauthenticated("session has been invalidated")
	}
	if session.IsExpired() {
		return nil, nil, unauthenticated("session has expired")
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Session outlived its account. Treat as unauthenticated.
			return nil, nil, unauthenticated("session owner no longer exists")
		}
		return nil, nil, s.storeFailure("get account by id", err)
	}

	return account, session, nil
}

// Logout invalidates the session for the given bearer token. The session
// row is kept with its valid flag cleared.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return unauthenticated("no session token supplied")
	}

	tokenHash := HashSessionToken(token)

	if err := s.sessions.Invalidate(ctx, tokenHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return unauthenticated("unknown session token")
		}
		return s.storeFailure("invalidate session", err)
	}
	return nil
}

// issueSession mints a fresh random token and persists a session bound to
// the account. A token hash collision is retried once with a new token; a
// second collision indicates a generator defect and is surfaced as-is.
func (s *Service) issueSession(ctx context.Context, accountID ulid.ULID) (*Session, string, error) {
	var session *Session
	var token string

	backoff := retry.WithMaxRetries(1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		plaintext, tokenHash, genErr := GenerateSessionToken()
		if genErr != nil {
			return genErr
		}

		candidate, newErr := NewSession(accountID, tokenHash, time.Now().Add(s.ttl))
		if newErr != nil {
			return newErr
		}

		if createErr := s.sessions.Create(ctx, candidate); createErr != nil {
			if errors.Is(createErr, ErrTokenConflict) {
				s.logger.Warn("session token collision, regenerating",
					"account_id", accountID.String())
				return retry.RetryableError(createErr)
			}
			return createErr
		}

		session, token = candidate, plaintext
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTokenConflict) {
			return nil, "", oops.Code("SESSION_TOKEN_CONFLICT").
				With("operation", "create session").
				With("account_id", accountID.String()).
				Wrap(err)
		}
		return nil, "", s.storeFailure("create session", err)
	}

	return session, token, nil
}

// storeFailure maps an unrecognized persistence error to a typed failure.
// Deadline expiry is distinguished so callers can signal a retryable
// condition; everything else becomes an internal fault, never a silent
// fallthrough.
func (s *Service) storeFailure(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return oops.Code("AUTH_TIMEOUT").With("operation", op).Wrap(err)
	}
	s.logger.Error("persistence failure", "operation", op, "error", err)
	return oops.Code("AUTH_INTERNAL").With("operation", op).Wrap(err)
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}

func unauthenticated(reason string) error {
	return oops.Code("AUTH_UNAUTHENTICATED").Wrapf(ErrUnauthenticated, "%s", reason)
}
