package webhooks

import (
	"time"

	"relayr/internal/engine/credentials"
	"relayr/internal/platform/models"
)

// Event types emitted by the relay pipeline.
const (
	EventPing                = "ping"
	EventMessageForwarded    = "message_forwarded"
	EventPairCreated         = "pair_created"
	EventPairPaused          = "pair_paused"
	EventPairResumed         = "pair_resumed"
	EventErrorOccurred       = "error_occurred"
	EventSessionDisconnected = "session_disconnected"
)

// PairStatusActive and PairStatusPaused are the pair states the
// before/after trigger derives events from.
const (
	PairStatusActive = "active"
	PairStatusPaused = "paused"
)

type MessageForwardedData struct {
	PairID     string `json:"pair_id"`
	SourceChat string `json:"source_chat"`
	TargetChat string `json:"target_chat"`
	MessageID  string `json:"message_id"`
}

type PairData struct {
	PairID     string `json:"pair_id"`
	SourceChat string `json:"source_chat"`
	TargetChat string `json:"target_chat"`
	Status     string `json:"status,omitempty"`
}

type ErrorData struct {
	PairID  string `json:"pair_id,omitempty"`
	Message string `json:"message"`
}

type SessionData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason,omitempty"`
}

// Queue is the narrow enqueue contract Triggers needs; *Dispatcher is the
// production implementation.
type Queue interface {
	Enqueue(event *models.WebhookEvent)
}

// Triggers is the contract the relay pipeline calls to turn domain
// activity into queued webhook events. Each call returns immediately.
type Triggers struct {
	queue Queue
}

func NewTriggers(queue Queue) *Triggers {
	return &Triggers{queue: queue}
}

func (t *Triggers) MessageForwarded(userID string, data MessageForwardedData) {
	t.emit(userID, EventMessageForwarded, data, nil)
}

func (t *Triggers) PairCreated(userID string, data PairData) {
	t.emit(userID, EventPairCreated, data, nil)
}

// PairStatusChanged derives pair_paused or pair_resumed from the
// before/after status pair. Transitions between other states emit
// nothing.
func (t *Triggers) PairStatusChanged(userID, before, after string, data PairData) {
	switch {
	case before == PairStatusActive && after == PairStatusPaused:
		data.Status = PairStatusPaused
		t.emit(userID, EventPairPaused, data, nil)
	case before == PairStatusPaused && after == PairStatusActive:
		data.Status = PairStatusActive
		t.emit(userID, EventPairResumed, data, nil)
	}
}

func (t *Triggers) ErrorOccurred(userID string, data ErrorData) {
	t.emit(userID, EventErrorOccurred, data, nil)
}

func (t *Triggers) SessionDisconnected(userID string, data SessionData) {
	t.emit(userID, EventSessionDisconnected, data, nil)
}

// NewPingEvent builds a synthetic event for endpoint verification. Ping
// events bypass the queue; callers hand them straight to the Deliverer.
func NewPingEvent(userID string) *models.WebhookEvent {
	return &models.WebhookEvent{
		ID:        credentials.NewEventID(),
		Type:      EventPing,
		UserID:    userID,
		Timestamp: time.Now().Unix(),
		Data:      map[string]string{"message": "ping"},
	}
}

func (t *Triggers) emit(userID, eventType string, data, metadata interface{}) {
	t.queue.Enqueue(&models.WebhookEvent{
		ID:        credentials.NewEventID(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().Unix(),
		Data:      data,
		Metadata:  metadata,
	})
}
