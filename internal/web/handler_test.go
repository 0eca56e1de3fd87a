// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package web_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/observability"
	"github.com/authgate/authgate/internal/web"
	"github.com/authgate/authgate/internal/web/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(t *testing.T, opts ...web.Option) (http.Handler, *mocks.MockAuthService) {
	t.Helper()
	svc := mocks.NewMockAuthService(t)
	h, err := web.NewHandler(svc, discardLogger(), opts...)
	require.NoError(t, err)
	return h.Routes(), svc
}

func testAccount(t *testing.T) *auth.Account {
	t.Helper()
	now := time.Now()
	return &auth.Account{
		ID:           ulid.Make(),
		Email:        "user@example.com",
		PasswordHash: "$2a$12$notrealnotrealnotrealnotrealnotrealnotrealnotrealnot",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func testSession(t *testing.T, accountID ulid.ULID) *auth.Session {
	t.Helper()
	return &auth.Session{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: auth.HashSessionToken("test-token"),
		Valid:     true,
		ExpiresAt: time.Now().Add(auth.SessionTTL),
		CreatedAt: time.Now(),
	}
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == web.SessionCookieName {
			return c
		}
	}
	return nil
}

func validationErr(detail string) error {
	return oops.Code("AUTH_VALIDATION_FAILED").Wrapf(auth.ErrInvalidInput, "%s", detail)
}

func TestHandleRegister(t *testing.T) {
	t.Run("success sets cookie and returns account", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		account := testAccount(t)
		session := testSession(t, account.ID)
		svc.On("Register", mock.Anything, "user@example.com", "password123", "password123").
			Return(account, session, "test-token", nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register",
			strings.NewReader(`{"email":"user@example.com","password":"password123","password2":"password123"}`))
		routes.ServeHTTP(rec, req)

		resp := rec.Result()
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), account.ID.String())
		assert.Contains(t, string(body), "user@example.com")
		assert.NotContains(t, string(body), account.PasswordHash)

		cookie := sessionCookie(t, resp)
		require.NotNil(t, cookie)
		assert.Equal(t, "test-token", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
		assert.Equal(t, "/", cookie.Path)
	})

	t.Run("validation failure returns 400 with detail", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("Register", mock.Anything, "user@example.com", "password123", "different").
			Return(nil, nil, "", validationErr("passwords do not match"))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register",
			strings.NewReader(`{"email":"user@example.com","password":"password123","password2":"different"}`))
		routes.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "passwords do not match")
		assert.NotContains(t, rec.Body.String(), "invalid input")
	})

	t.Run("duplicate email returns 400", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("Register", mock.Anything, "taken@example.com", "password123", "password123").
			Return(nil, nil, "", oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(auth.ErrDuplicateEmail))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register",
			strings.NewReader(`{"email":"taken@example.com","password":"password123","password2":"password123"}`))
		routes.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "email already in use")
	})

	t.Run("malformed JSON returns 400 without service call", func(t *testing.T) {
		routes, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{not json"))
		routes.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid json")
	})

	t.Run("wrong method returns 405", func(t *testing.T) {
		routes, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/register", nil)
		routes.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("internal failure returns generic 500", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("Register", mock.Anything, "user@example.com", "password123", "password123").
			Return(nil, nil, "", oops.Code("AUTH_INTERNAL").Errorf("pool exhausted on shard 7"))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register",
			strings.NewReader(`{"email":"user@example.com","password":"password123","password2":"password123"}`))
		routes.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "internal server error")
		assert.NotContains(t, rec.Body.String(), "shard")
	})

	t.Run("deadline exceeded returns 503", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("Register", mock.Anything, "user@example.com", "password123", "password123").
			Return(nil, nil, "", oops.Code("AUTH_TIMEOUT").Wrap(context.DeadlineExceeded))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register",
			strings.NewReader(`{"email":"user@example.com","password":"password123","password2":"password123"}`))
		routes.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	t.Run("success sets cookie and returns expiry", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		account := testAccount(t)
		session := testSession(t, account.ID)
		svc.On("Login", mock.Anything, "user@example.com", "password123").
			Return(session, "test-token", nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"email":"user@example.com","password":"password123"}`))
		routes.ServeHTTP(rec, req)

		resp := rec.Result()
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, rec.Body.String(), "expiresAt")

		cookie := sessionCookie(t, resp)
		require.NotNil(t, cookie)
		assert.Equal(t, "test-token", cookie.Value)
	})

	t.Run("invalid credentials return 401", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("Login", mock.Anything, "user@example.com", "wrong").
			Return(nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(auth.ErrInvalidCredentials))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"email":"user@example.com","password":"wrong"}`))
		routes.ServeHTTP(rec, req)

		resp := rec.Result()
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid email or password")
		assert.Nil(t, sessionCookie(t, resp))
	})

	t.Run("empty email returns 400", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("Login", mock.Anything, "", "password123").
			Return(nil, "", validationErr("email cannot be empty"))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"password":"password123"}`))
		routes.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("insecure cookies fall back to lax", func(t *testing.T) {
		routes, svc := newTestHandler(t, web.WithInsecureCookies())
		account := testAccount(t)
		session := testSession(t, account.ID)
		svc.On("Login", mock.Anything, "user@example.com", "password123").
			Return(session, "test-token", nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"email":"user@example.com","password":"password123"}`))
		routes.ServeHTTP(rec, req)

		resp := rec.Result()
		defer resp.Body.Close()
		cookie := sessionCookie(t, resp)
		require.NotNil(t, cookie)
		assert.False(t, cookie.Secure)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	})
}

func TestHandleSession(t *testing.T) {
	t.Run("valid cookie returns account identity", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		account := testAccount(t)
		session := testSession(t, account.ID)
		svc.On("ValidateSession", mock.Anything, "test-token").
			Return(account, session, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.AddCookie(&http.Cookie{Name: web.SessionCookieName, Value: "test-token"})
		routes.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "user@example.com")
		assert.NotContains(t, rec.Body.String(), account.PasswordHash)
	})

	t.Run("missing cookie returns 401", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("ValidateSession", mock.Anything, "").
			Return(nil, nil, oops.Code("AUTH_UNAUTHENTICATED").Wrap(auth.ErrUnauthenticated))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		routes.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
	})

	t.Run("expired session returns 401", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("ValidateSession", mock.Anything, "stale-token").
			Return(nil, nil, oops.Code("AUTH_UNAUTHENTICATED").
				Wrapf(auth.ErrUnauthenticated, "session has expired"))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.AddCookie(&http.Cookie{Name: web.SessionCookieName, Value: "stale-token"})
		routes.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	t.Run("invalidates session and clears cookie", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("Logout", mock.Anything, "test-token").Return(nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
		req.AddCookie(&http.Cookie{Name: web.SessionCookieName, Value: "test-token"})
		routes.ServeHTTP(rec, req)

		resp := rec.Result()
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cookie := sessionCookie(t, resp)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	})

	t.Run("unknown token still clears cookie", func(t *testing.T) {
		routes, svc := newTestHandler(t)
		svc.On("Logout", mock.Anything, "bogus").
			Return(oops.Code("AUTH_UNAUTHENTICATED").Wrap(auth.ErrUnauthenticated))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
		req.AddCookie(&http.Cookie{Name: web.SessionCookieName, Value: "bogus"})
		routes.ServeHTTP(rec, req)

		resp := rec.Result()
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, sessionCookie(t, resp))
	})
}

func TestHandler_Metrics(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	routes, svc := newTestHandler(t, web.WithMetrics(metrics))
	svc.On("Login", mock.Anything, "user@example.com", "wrong").
		Return(nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(auth.ErrInvalidCredentials))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"user@example.com","password":"wrong"}`))
	routes.ServeHTTP(rec, req)

	got := testutil.ToFloat64(metrics.LoginsTotal.WithLabelValues(observability.OutcomeInvalidCreds))
	assert.Equal(t, float64(1), got)
}

func TestHandler_RequestIDEchoed(t *testing.T) {
	routes, svc := newTestHandler(t)
	svc.On("ValidateSession", mock.Anything, "").
		Return(nil, nil, oops.Code("AUTH_UNAUTHENTICATED").Wrap(auth.ErrUnauthenticated))

	t.Run("honors incoming header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.Header.Set("X-Request-Id", "req-123")
		routes.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	})

	t.Run("mints one when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		routes.ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})
}

func TestNewHandler_NilService(t *testing.T) {
	_, err := web.NewHandler(nil, discardLogger())
	assert.Error(t, err)
}
