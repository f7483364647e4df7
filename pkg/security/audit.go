package security

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	bearerTokenRe = regexp.MustCompile(`Bearer [a-zA-Z0-9]+`)
	longSecretRe  = regexp.MustCompile(`[a-zA-Z0-9]{32,}`)
)

// Redact strips bearer tokens and long opaque secrets from a string before
// it reaches logs or storage.
func Redact(s string) string {
	s = bearerTokenRe.ReplaceAllString(s, "Bearer ***")
	return longSecretRe.ReplaceAllString(s, "***")
}

// Event is one security-relevant occurrence on the request path.
type Event struct {
	ID        uuid.UUID
	Type      string
	ClientIP  string
	UserAgent string
	Method    string
	Path      string
	Details   map[string]any
	CreatedAt time.Time
}

// EventStore persists audit events. Implementations must be safe for
// concurrent use.
type EventStore interface {
	SaveEvent(ctx context.Context, ev Event) error
}

// Auditor records security events for monitoring. Recording never blocks or
// alters the outcome of the request being audited: store failures are
// logged and swallowed.
type Auditor struct {
	logger *zap.Logger
	store  EventStore // nil when audit persistence is not configured
}

func NewAuditor(logger *zap.Logger, store EventStore) *Auditor {
	return &Auditor{logger: logger, store: store}
}

// Record redacts, logs and (when a store is configured) persists one event.
func (a *Auditor) Record(ctx context.Context, ev Event) {
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now().UTC()
	ev.UserAgent = Redact(ev.UserAgent)

	fields := []zap.Field{
		zap.String("event_type", ev.Type),
		zap.String("client_ip", ev.ClientIP),
		zap.String("user_agent", ev.UserAgent),
		zap.String("method", ev.Method),
		zap.String("path", ev.Path),
	}
	for key, value := range ev.Details {
		if s, ok := value.(string); ok {
			value = Redact(s)
			ev.Details[key] = value
		}
		fields = append(fields, zap.Any(key, value))
	}

	a.logger.Warn("Security event", fields...)

	if a.store == nil {
		return
	}
	if err := a.store.SaveEvent(ctx, ev); err != nil {
		a.logger.Warn("Failed to persist audit event",
			zap.String("event_type", ev.Type),
			zap.Error(err),
		)
	}
}
