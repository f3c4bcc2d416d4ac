package alerts

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Context carries the structured fields attached to an operator alert.
type Context struct {
	UserID    string
	WebhookID string
	ErrorType string
}

// Reporter is the operator-facing alert sink. Calls are fire-and-forget;
// implementations must not block the caller.
type Reporter interface {
	Report(err error, ctx Context)
}

type LogReporter struct {
	logger zerolog.Logger
}

func NewLogReporter() *LogReporter {
	return &LogReporter{logger: log.With().Str("component", "alerts").Logger()}
}

func (r *LogReporter) Report(err error, ctx Context) {
	r.logger.Error().
		Err(err).
		Str("user_id", ctx.UserID).
		Str("webhook_id", ctx.WebhookID).
		Str("error_type", ctx.ErrorType).
		Msg("operator alert")
}
