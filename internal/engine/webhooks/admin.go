package webhooks

import (
	"database/sql"
	"errors"

	"relayr/internal/engine/credentials"
	"relayr/internal/platform/models"
)

var (
	ErrNotFound      = errors.New("webhooks: config not found")
	ErrNotOwner      = errors.New("webhooks: config owned by another user")
	ErrInvalidConfig = errors.New("webhooks: timeout_seconds and max_retries must be positive")
)

// Defaults applied to new webhooks when the caller leaves them unset.
type Defaults struct {
	TimeoutSeconds int
	MaxRetries     int
}

// ConfigUpdate is a partial edit; nil fields are left untouched.
type ConfigUpdate struct {
	URL            *string
	Events         []string
	Active         *bool
	TimeoutSeconds *int
	MaxRetries     *int
	Headers        map[string]string
	RotateSecret   bool
}

// Admin is the user-facing CRUD facade over webhook configs. Every
// mutation verifies ownership before touching the Registry.
type Admin struct {
	registry Registry
	defaults Defaults
}

func NewAdmin(registry Registry, defaults Defaults) *Admin {
	return &Admin{registry: registry, defaults: defaults}
}

func (a *Admin) Create(userID, url string, events []string, headers map[string]string) (*models.WebhookConfig, error) {
	webhook := &models.WebhookConfig{
		UserID:         userID,
		URL:            url,
		Events:         events,
		Secret:         credentials.NewWebhookSecret(),
		TimeoutSeconds: a.defaults.TimeoutSeconds,
		MaxRetries:     a.defaults.MaxRetries,
		Headers:        headers,
	}
	if err := a.registry.Create(webhook); err != nil {
		return nil, err
	}
	return webhook, nil
}

func (a *Admin) Get(userID, id string) (*models.WebhookConfig, error) {
	return a.owned(userID, id)
}

func (a *Admin) List(userID string) ([]*models.WebhookConfig, error) {
	return a.registry.GetByUser(userID)
}

func (a *Admin) Update(userID, id string, update ConfigUpdate) (*models.WebhookConfig, error) {
	// A zero timeout expires the delivery context immediately and a zero
	// retry ceiling disables the webhook on its first failure.
	if update.TimeoutSeconds != nil && *update.TimeoutSeconds <= 0 {
		return nil, ErrInvalidConfig
	}
	if update.MaxRetries != nil && *update.MaxRetries <= 0 {
		return nil, ErrInvalidConfig
	}

	webhook, err := a.owned(userID, id)
	if err != nil {
		return nil, err
	}

	if update.URL != nil {
		webhook.URL = *update.URL
	}
	if update.Events != nil {
		webhook.Events = update.Events
	}
	if update.TimeoutSeconds != nil {
		webhook.TimeoutSeconds = *update.TimeoutSeconds
	}
	if update.MaxRetries != nil {
		webhook.MaxRetries = *update.MaxRetries
	}
	if update.Headers != nil {
		webhook.Headers = update.Headers
	}
	if update.RotateSecret {
		webhook.Secret = credentials.NewWebhookSecret()
	}
	if update.Active != nil {
		webhook.Active = *update.Active
		if *update.Active {
			// Explicit re-enable starts with a clean slate; otherwise the
			// next failure would trip the ceiling again immediately.
			webhook.FailureCount = 0
		}
	}

	if err := a.registry.Update(webhook); err != nil {
		return nil, err
	}
	return webhook, nil
}

func (a *Admin) Delete(userID, id string) error {
	if _, err := a.owned(userID, id); err != nil {
		return err
	}
	return a.registry.Delete(id)
}

func (a *Admin) owned(userID, id string) (*models.WebhookConfig, error) {
	webhook, err := a.registry.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if webhook.UserID != userID {
		return nil, ErrNotOwner
	}
	return webhook, nil
}
