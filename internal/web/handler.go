// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

// Package web exposes the authentication service over HTTP. Handlers stay
// thin: all credential and session rules live in the auth package, and
// this layer only translates between JSON requests, cookies, and service
// calls.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/observability"
	"github.com/authgate/authgate/pkg/errutil"
)

// AuthService is the part of the auth service the HTTP layer consumes.
type AuthService interface {
	Register(ctx context.Context, email, password, passwordConfirm string) (*auth.Account, *auth.Session, string, error)
	Login(ctx context.Context, email, password string) (*auth.Session, string, error)
	ValidateSession(ctx context.Context, token string) (*auth.Account, *auth.Session, error)
	Logout(ctx context.Context, token string) error
}

// Handler serves the authentication API routes.
type Handler struct {
	service        AuthService
	metrics        *observability.Metrics
	logger         *slog.Logger
	requestTimeout time.Duration
	secureCookies  bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics records authentication outcomes on the given metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithRequestTimeout bounds each service call with a deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) { h.requestTimeout = d }
}

// WithInsecureCookies drops the Secure attribute from session cookies
// for plain-HTTP development setups.
func WithInsecureCookies() Option {
	return func(h *Handler) { h.secureCookies = false }
}

// NewHandler creates a Handler for the given service.
func NewHandler(service AuthService, logger *slog.Logger, opts ...Option) (*Handler, error) {
	if service == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("auth service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		service:        service,
		logger:         logger,
		requestTimeout: 10 * time.Second,
		secureCookies:  true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes returns the API routes wrapped with request ID, panic recovery,
// and instrumentation middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", h.handleRegister)
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("GET /api/session", h.handleSession)
	mux.HandleFunc("POST /api/logout", h.handleLogout)

	var handler http.Handler = mux
	handler = h.instrument(handler)
	handler = h.recovery(handler)
	handler = withRequestID(handler)
	return handler
}

func (h *Handler) serviceContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.requestTimeout)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := h.serviceContext(r)
	defer cancel()

	account, session, token, err := h.service.Register(ctx, in.Email, in.Password, in.Password2)
	if err != nil {
		h.recordOutcome(h.registrations(), err)
		h.writeServiceErr(w, r, err)
		return
	}
	h.countOutcome(h.registrations(), observability.OutcomeSuccess)

	h.setSessionCookie(w, token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": accountJSON(account),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := h.serviceContext(r)
	defer cancel()

	session, token, err := h.service.Login(ctx, in.Email, in.Password)
	if err != nil {
		h.recordOutcome(h.logins(), err)
		h.writeServiceErr(w, r, err)
		return
	}
	h.countOutcome(h.logins(), observability.OutcomeSuccess)

	h.setSessionCookie(w, token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"expiresAt": session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.serviceContext(r)
	defer cancel()

	account, session, err := h.service.ValidateSession(ctx, sessionToken(r))
	if err != nil {
		h.recordOutcome(h.validations(), err)
		h.writeServiceErr(w, r, err)
		return
	}
	h.countOutcome(h.validations(), observability.OutcomeSuccess)

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": accountJSON(account),
		"session": map[string]any{
			"expiresAt": session.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.serviceContext(r)
	defer cancel()

	err := h.service.Logout(ctx, sessionToken(r))
	if err != nil && !errors.Is(err, auth.ErrUnauthenticated) {
		h.writeServiceErr(w, r, err)
		return
	}

	// Clearing the cookie is the point; an unknown or missing token is
	// already logged out.
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// accountJSON renders the outward account shape. The password hash is
// deliberately absent.
func accountJSON(a *auth.Account) map[string]any {
	return map[string]any{
		"id":        a.ID.String(),
		"email":     a.Email,
		"createdAt": a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// writeServiceErr maps a service error to an HTTP status and a safe
// outward message.
func (h *Handler) writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeErr(w, http.StatusBadRequest, publicMessage(err))
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeErr(w, http.StatusBadRequest, "email already in use")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeErr(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrUnauthenticated):
		writeErr(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, context.DeadlineExceeded):
		writeErr(w, http.StatusServiceUnavailable, "temporarily unavailable, retry shortly")
	default:
		errutil.LogError(h.logger.With(
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIDFromContext(r.Context()),
		), "request failed", err)
		writeErr(w, http.StatusInternalServerError, "internal server error")
	}
}

// publicMessage extracts the user-correctable detail from a validation
// error. Validation failures end with the shared sentinel text, which
// carries no information for the caller and is trimmed off.
func publicMessage(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+auth.ErrInvalidInput.Error())
	if msg == "" {
		return auth.ErrInvalidInput.Error()
	}
	return msg
}

func (h *Handler) registrations() *prometheus.CounterVec {
	if h.metrics == nil {
		return nil
	}
	return h.metrics.RegistrationsTotal
}

func (h *Handler) logins() *prometheus.CounterVec {
	if h.metrics == nil {
		return nil
	}
	return h.metrics.LoginsTotal
}

func (h *Handler) validations() *prometheus.CounterVec {
	if h.metrics == nil {
		return nil
	}
	return h.metrics.SessionValidationsTotal
}

func (h *Handler) countOutcome(c *prometheus.CounterVec, status string) {
	if c == nil {
		return
	}
	c.WithLabelValues(status).Inc()
}

func (h *Handler) recordOutcome(c *prometheus.CounterVec, err error) {
	h.countOutcome(c, outcomeLabel(err))
}

// outcomeLabel buckets a service error for metrics.
func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return observability.OutcomeInvalidInput
	case errors.Is(err, auth.ErrDuplicateEmail):
		return observability.OutcomeDuplicate
	case errors.Is(err, auth.ErrInvalidCredentials):
		return observability.OutcomeInvalidCreds
	case errors.Is(err, auth.ErrUnauthenticated):
		return observability.OutcomeUnauthenticated
	default:
		return observability.OutcomeError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	//nolint:errcheck // response write error means the client went away
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

const maxBodyBytes = 1 << 16

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
