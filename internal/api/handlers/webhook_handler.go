package handlers

import (
	"encoding/json"
	goerrors "errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "relayr/internal/api/context"
	"relayr/internal/engine/webhooks"
	"relayr/internal/pkg/errors"
)

type WebhookHandler struct {
	admin     *webhooks.Admin
	deliverer *webhooks.Deliverer
}

func NewWebhookHandler(admin *webhooks.Admin, deliverer *webhooks.Deliverer) *WebhookHandler {
	return &WebhookHandler{admin: admin, deliverer: deliverer}
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)

	var req struct {
		URL     string            `json:"url"`
		Events  []string          `json:"events"`
		Headers map[string]string `json:"headers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.URL == "" || len(req.Events) == 0 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "url and events are required", nil)
		return
	}

	webhook, err := h.admin.Create(userID, req.URL, req.Events, req.Headers)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(webhook)
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)

	list, err := h.admin.List(userID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	webhook, err := h.admin.Get(userID, params.ByName("webhook_id"))
	if err != nil {
		writeAdminError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(webhook)
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req struct {
		URL            *string           `json:"url"`
		Events         []string          `json:"events"`
		Active         *bool             `json:"active"`
		TimeoutSeconds *int              `json:"timeout_seconds"`
		MaxRetries     *int              `json:"max_retries"`
		Headers        map[string]string `json:"headers"`
		RotateSecret   bool              `json:"rotate_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	webhook, err := h.admin.Update(userID, params.ByName("webhook_id"), webhooks.ConfigUpdate{
		URL:            req.URL,
		Events:         req.Events,
		Active:         req.Active,
		TimeoutSeconds: req.TimeoutSeconds,
		MaxRetries:     req.MaxRetries,
		Headers:        req.Headers,
		RotateSecret:   req.RotateSecret,
	})
	if err != nil {
		writeAdminError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(webhook)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	if err := h.admin.Delete(userID, params.ByName("webhook_id")); err != nil {
		writeAdminError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Test sends a signed ping event through the deliverer so operators can
// verify their endpoint before real traffic arrives.
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(apiContext.UserID).(string)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	webhook, err := h.admin.Get(userID, params.ByName("webhook_id"))
	if err != nil {
		writeAdminError(w, err)
		return
	}

	event := webhooks.NewPingEvent(userID)
	outcome := h.deliverer.Deliver(r.Context(), webhook, event)

	resp := map[string]interface{}{
		"delivered":   outcome.Kind == webhooks.Success,
		"status_code": outcome.StatusCode,
	}
	if outcome.Failed() {
		resp["error"] = outcome.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case goerrors.Is(err, webhooks.ErrInvalidConfig):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "timeout_seconds and max_retries must be positive", nil)
	case goerrors.Is(err, webhooks.ErrNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
	case goerrors.Is(err, webhooks.ErrNotOwner):
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Webhook belongs to another user", nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
	}
}
