package webhooks

import (
	"fmt"
	"time"

	"relayr/internal/pkg/alerts"
	"relayr/internal/platform/models"
)

// FailureTracker turns delivery outcomes into failure bookkeeping. A
// success clears the counter; failures accumulate until the webhook's
// retry ceiling, at which point the webhook is disabled for good and the
// operator is alerted. Re-enabling requires explicit user action.
type FailureTracker struct {
	registry Registry
	reporter alerts.Reporter
}

func NewFailureTracker(registry Registry, reporter alerts.Reporter) *FailureTracker {
	return &FailureTracker{registry: registry, reporter: reporter}
}

// Record persists the outcome of one delivery attempt. The webhook value
// is updated in place so callers within a drain cycle see the current
// counter.
func (t *FailureTracker) Record(webhook *models.WebhookConfig, outcome Outcome) error {
	if outcome.Kind == Success {
		webhook.FailureCount = 0
		return t.registry.ResetFailureCount(webhook.ID, time.Now().Unix())
	}

	webhook.FailureCount++
	if err := t.registry.IncrementFailureCount(webhook.ID); err != nil {
		return err
	}

	if webhook.FailureCount < webhook.MaxRetries {
		return nil
	}

	if err := t.registry.Disable(webhook.ID); err != nil {
		return err
	}
	webhook.Active = false

	t.reporter.Report(
		fmt.Errorf("webhook disabled after %d consecutive failures: %s", webhook.FailureCount, outcome.Error()),
		alerts.Context{
			UserID:    webhook.UserID,
			WebhookID: webhook.ID,
			ErrorType: "webhook_disabled",
		},
	)
	return nil
}
