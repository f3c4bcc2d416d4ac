package credentials

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	alphanumerics = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	webhookSecretPrefix = "whsec_"
	webhookSecretLength = 32

	apiKeyPrefix = "rk_live_"
	apiKeyLength = 40

	eventIDPrefix       = "evt_"
	eventIDSuffixLength = 6
)

// NewWebhookSecret mints a per-config signing secret.
func NewWebhookSecret() string {
	return webhookSecretPrefix + randomString(webhookSecretLength)
}

// NewAPIKey mints a programmatic access key.
func NewAPIKey() string {
	return apiKeyPrefix + randomString(apiKeyLength)
}

// NewEventID mints a sortable event identifier. The nanosecond prefix
// orders IDs by creation time; the random suffix makes same-instant
// collisions negligible, not impossible.
func NewEventID() string {
	return fmt.Sprintf("%s%d_%s", eventIDPrefix, time.Now().UnixNano(), randomString(eventIDSuffixLength))
}

func randomString(length int) string {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		// crypto/rand is documented to never fail on supported platforms
		panic(err)
	}

	b := make([]byte, length)
	for i, v := range raw {
		b[i] = alphanumerics[int(v)%len(alphanumerics)]
	}
	return string(b)
}
