// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

// Package auth implements the session lifecycle subsystem: credential
// verification, session token issuance, and session validation.
//
// # Domain Types
//
// Domain types (Account, Session) should be created using their
// constructors:
//   - NewAccount - creates an Account with a validated email and password hash
//   - NewSession - creates a Session with a validated owner and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service orchestrates registration, login, session validation, and logout
// over an AccountRepository, a SessionRepository, and a PasswordHasher.
// It is created with NewService, which validates dependencies.
package auth
