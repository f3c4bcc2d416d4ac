package webhooks

import "relayr/internal/platform/models"

// SubscriberResolver finds the webhooks an event should be delivered to:
// configs owned by the event's user that are active and subscribed to the
// event's type. Pure read; Registry errors propagate to the caller.
type SubscriberResolver struct {
	registry Registry
}

func NewSubscriberResolver(registry Registry) *SubscriberResolver {
	return &SubscriberResolver{registry: registry}
}

func (r *SubscriberResolver) Resolve(event *models.WebhookEvent) ([]*models.WebhookConfig, error) {
	webhooks, err := r.registry.GetByUser(event.UserID)
	if err != nil {
		return nil, err
	}

	var matched []*models.WebhookConfig
	for _, w := range webhooks {
		if w.Active && w.Subscribed(event.Type) {
			matched = append(matched, w)
		}
	}
	return matched, nil
}
