package models

// WebhookConfig is an operator-registered endpoint that receives signed
// push notifications for subscribed event types. Failure bookkeeping is
// owned by the delivery engine; everything else is edited by the user.
type WebhookConfig struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	URL             string            `json:"url"`
	Events          []string          `json:"events"` // JSON array in DB
	Secret          string            `json:"secret"`
	Active          bool              `json:"active"`
	FailureCount    int               `json:"failure_count"`
	MaxRetries      int               `json:"max_retries"`
	TimeoutSeconds  int               `json:"timeout_seconds"`
	Headers         map[string]string `json:"headers,omitempty"` // JSON object in DB
	LastTriggeredAt *int64            `json:"last_triggered_at,omitempty"`
	CreatedAt       int64             `json:"created_at"`
	UpdatedAt       int64             `json:"updated_at"`
}

// Subscribed reports whether the config listens for the given event type.
func (w *WebhookConfig) Subscribed(eventType string) bool {
	for _, e := range w.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// WebhookEvent is an immutable fact produced by the relay pipeline and
// consumed exactly once by the dispatch loop. Never persisted.
type WebhookEvent struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
	Metadata  interface{} `json:"metadata,omitempty"`
}
