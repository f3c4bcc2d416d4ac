package middleware

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	apiContext "relayr/internal/api/context"
	"relayr/internal/engine/apikeys"
	"relayr/internal/engine/ratelimit"
	"relayr/internal/platform/repositories"
)

var apiKeyCols = []string{"id", "user_id", "name", "key", "permissions", "active",
	"requests_per_minute", "requests_per_hour", "requests_per_day",
	"last_used_at", "usage_count", "expires_at", "created_at"}

func keyRow(active bool) *sqlmock.Rows {
	return sqlmock.NewRows(apiKeyCols).
		AddRow("key_1", "user1", "ci key", "rk_live_abc", `["webhooks:read"]`, active,
			60, 1000, 10000, nil, 0, nil, 1700000000)
}

func newTestMiddleware(t *testing.T) (*APIKeyMiddleware, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	svc := apikeys.NewService(repositories.NewAPIKeyRepository(db), ratelimit.NewLimiter(), apikeys.Defaults{
		RequestsPerMinute: 60, RequestsPerHour: 1000, RequestsPerDay: 10000,
	})
	return NewAPIKeyMiddleware(svc), mock, db
}

func TestAPIKeyMiddleware_ValidKey(t *testing.T) {
	mid, mock, db := newTestMiddleware(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM api_keys WHERE key = \?`).
		WithArgs("rk_live_abc").
		WillReturnRows(keyRow(true))
	mock.ExpectExec(`UPDATE api_keys SET last_used_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var gotUserID string
	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value(apiContext.UserID).(string)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/v1/webhooks", nil)
	req.Header.Set("X-API-Key", "rk_live_abc")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUserID != "user1" {
		t.Errorf("Expected user1 in context, got %q", gotUserID)
	}
}

func TestAPIKeyMiddleware_MissingKey(t *testing.T) {
	mid, _, db := newTestMiddleware(t)
	defer db.Close()

	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run without a key")
	})

	req := httptest.NewRequest("GET", "/v1/webhooks", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_UnknownKey(t *testing.T) {
	mid, mock, db := newTestMiddleware(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM api_keys WHERE key = \?`).
		WithArgs("rk_live_missing").
		WillReturnError(sql.ErrNoRows)

	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run for an unknown key")
	})

	req := httptest.NewRequest("GET", "/v1/webhooks", nil)
	req.Header.Set("Authorization", "Bearer rk_live_missing")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_StoreFaultIsServerError(t *testing.T) {
	mid, mock, db := newTestMiddleware(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM api_keys WHERE key = \?`).
		WithArgs("rk_live_abc").
		WillReturnError(errors.New("database is locked"))

	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run when the store is down")
	})

	req := httptest.NewRequest("GET", "/v1/webhooks", nil)
	req.Header.Set("X-API-Key", "rk_live_abc")
	rec := httptest.NewRecorder()
	handler(rec, req)

	// A store outage is a server fault, not a credential failure.
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAPIKeyMiddleware_DisabledKey(t *testing.T) {
	mid, mock, db := newTestMiddleware(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM api_keys WHERE key = \?`).
		WithArgs("rk_live_abc").
		WillReturnRows(keyRow(false))

	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run for a disabled key")
	})

	req := httptest.NewRequest("GET", "/v1/webhooks", nil)
	req.Header.Set("X-API-Key", "rk_live_abc")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_RateLimited(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	svc := apikeys.NewService(repositories.NewAPIKeyRepository(db), ratelimit.NewLimiter(), apikeys.Defaults{})
	mid := NewAPIKeyMiddleware(svc)

	// Per-minute limit of 1: first request passes, second is throttled
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(apiKeyCols).
			AddRow("key_1", "user1", "ci key", "rk_live_abc", `["*"]`, true,
				1, 1000, 10000, nil, 0, nil, 1700000000)
	}
	mock.ExpectQuery(`SELECT .+ FROM api_keys WHERE key = \?`).WillReturnRows(row())
	mock.ExpectExec(`UPDATE api_keys SET last_used_at`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM api_keys WHERE key = \?`).WillReturnRows(row())

	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/v1/webhooks", nil)
	req.Header.Set("X-API-Key", "rk_live_abc")

	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("First request should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Second request should be throttled, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on 429")
	}
}
