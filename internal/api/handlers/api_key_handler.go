package handlers

import (
	"encoding/json"
	goerrors "errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	apiContext "relayr/internal/api/context"
	"relayr/internal/engine/apikeys"
	"relayr/internal/pkg/errors"
	"relayr/internal/platform/models"
)

type APIKeyHandler struct {
	keys *apikeys.Service
}

func NewAPIKeyHandler(keys *apikeys.Service) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)

	var req struct {
		Name          string   `json:"name"`
		Permissions   []string `json:"permissions"`
		ExpiresInDays int      `json:"expires_in_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "name is required", nil)
		return
	}

	var expiresAt *int64
	if req.ExpiresInDays > 0 {
		exp := time.Now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour).Unix()
		expiresAt = &exp
	}

	record, rawKey, err := h.keys.Create(userID, req.Name, req.Permissions, expiresAt)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	// The raw key is returned only here; every later read omits it.
	response := struct {
		*models.APIKey
		Key string `json:"key"`
	}{APIKey: record, Key: rawKey}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)

	keys, err := h.keys.List(userID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(keys)
}

func (h *APIKeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req struct {
		Name              *string  `json:"name"`
		Permissions       []string `json:"permissions"`
		Active            *bool    `json:"active"`
		RequestsPerMinute *int     `json:"requests_per_minute"`
		RequestsPerHour   *int     `json:"requests_per_hour"`
		RequestsPerDay    *int     `json:"requests_per_day"`
		ExpiresAt         *int64   `json:"expires_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	key, err := h.keys.Update(userID, params.ByName("key_id"), apikeys.KeyUpdate{
		Name:              req.Name,
		Permissions:       req.Permissions,
		Active:            req.Active,
		RequestsPerMinute: req.RequestsPerMinute,
		RequestsPerHour:   req.RequestsPerHour,
		RequestsPerDay:    req.RequestsPerDay,
		ExpiresAt:         req.ExpiresAt,
	})
	if err != nil {
		writeKeyError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(key)
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	if err := h.keys.Delete(userID, params.ByName("key_id")); err != nil {
		writeKeyError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeKeyError(w http.ResponseWriter, err error) {
	switch {
	case goerrors.Is(err, apikeys.ErrInvalidLimit):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "rate limit windows must be positive", nil)
	case goerrors.Is(err, apikeys.ErrNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "API key not found", nil)
	case goerrors.Is(err, apikeys.ErrNotOwner):
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "API key belongs to another user", nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
	}
}
