package middleware

import (
	"context"
	goerrors "errors"
	"net/http"
	"strings"

	apiContext "relayr/internal/api/context"
	"relayr/internal/engine/apikeys"
	"relayr/internal/pkg/errors"
	"relayr/internal/platform/models"
)

type APIKeyMiddleware struct {
	keys *apikeys.Service
}

func NewAPIKeyMiddleware(keys *apikeys.Service) *APIKeyMiddleware {
	return &APIKeyMiddleware{keys: keys}
}

// Handle guards programmatic routes. The key is validated and one request
// is consumed from each rate-limit window before the handler runs.
func (m *APIKeyMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawKey := extractKey(r)
		if rawKey == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing API key", nil)
			return
		}

		key, err := m.keys.Validate(rawKey)
		if err != nil {
			writeValidationError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.APIKey, key)
		ctx = context.WithValue(ctx, apiContext.UserID, key.UserID)
		next(w, r.WithContext(ctx))
	}
}

func extractKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func writeValidationError(w http.ResponseWriter, err error) {
	switch {
	case goerrors.Is(err, apikeys.ErrInvalidKey):
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid API key", nil)
	case goerrors.Is(err, apikeys.ErrKeyDisabled):
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeKeyDisabled, "API key is disabled", nil)
	case goerrors.Is(err, apikeys.ErrKeyExpired):
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeKeyExpired, "API key has expired", nil)
	case goerrors.Is(err, apikeys.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Key validation failed", nil)
	}
}

// RequirePermission gates a programmatic route on the key's permission
// set. Must run after Handle.
func RequirePermission(perm string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key, ok := r.Context().Value(apiContext.APIKey).(*models.APIKey)
			if !ok || !key.HasPermission(perm) {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}
			next(w, r)
		}
	}
}
