package webhooks

import "relayr/internal/platform/models"

// Registry is the persistence collaborator for webhook configs.
// *repositories.WebhookRepository is the production implementation.
type Registry interface {
	Create(webhook *models.WebhookConfig) error
	GetByID(id string) (*models.WebhookConfig, error)
	GetByUser(userID string) ([]*models.WebhookConfig, error)
	Update(webhook *models.WebhookConfig) error
	Delete(id string) error
	IncrementFailureCount(id string) error
	ResetFailureCount(id string, lastTriggeredAt int64) error
	Disable(id string) error
}
