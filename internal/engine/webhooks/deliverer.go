package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"relayr/internal/platform/models"
)

const (
	headerSignature = "X-Relayr-Signature"
	headerEvent     = "X-Relayr-Event"
	userAgent       = "Relayr-Webhook/1.0"
)

type OutcomeKind int

const (
	Success OutcomeKind = iota
	HTTPFailure
	TransportFailure
)

// Outcome classifies a single delivery attempt.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	StatusText string
	Message    string
}

func (o Outcome) Failed() bool {
	return o.Kind != Success
}

// Error describes a failed outcome for logs and alerts.
func (o Outcome) Error() string {
	switch o.Kind {
	case HTTPFailure:
		return "HTTP " + o.StatusText
	case TransportFailure:
		return o.Message
	}
	return ""
}

type payload struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
	Metadata  interface{} `json:"metadata,omitempty"`
}

// Deliverer performs signed outbound calls to operator endpoints.
type Deliverer struct {
	client *http.Client
}

// NewDeliverer wires the HTTP client used for outbound calls. Pass nil to
// use a default client; per-delivery deadlines come from each webhook's
// configured timeout, not from the client.
func NewDeliverer(client *http.Client) *Deliverer {
	if client == nil {
		client = &http.Client{}
	}
	return &Deliverer{client: client}
}

// Deliver builds the signed JSON payload and POSTs it to the webhook's
// URL, bounded by the config's timeout. Operator headers are applied
// before the reserved headers so they can never override the signature,
// event type, content type or user agent.
func (d *Deliverer) Deliver(ctx context.Context, webhook *models.WebhookConfig, event *models.WebhookEvent) Outcome {
	body, err := json.Marshal(payload{
		Event:     event.Type,
		Timestamp: time.Unix(event.Timestamp, 0).UTC().Format(time.RFC3339),
		Data:      event.Data,
		Metadata:  event.Metadata,
	})
	if err != nil {
		return Outcome{Kind: TransportFailure, Message: "marshal payload: " + err.Error()}
	}

	timeout := time.Duration(webhook.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		return Outcome{Kind: TransportFailure, Message: err.Error()}
	}

	for k, v := range webhook.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerSignature, Sign(webhook.Secret, body))
	req.Header.Set(headerEvent, event.Type)
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		// DNS, connection refused, timeout, TLS
		return Outcome{Kind: TransportFailure, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Outcome{Kind: Success, StatusCode: resp.StatusCode}
	}
	return Outcome{Kind: HTTPFailure, StatusCode: resp.StatusCode, StatusText: resp.Status}
}
