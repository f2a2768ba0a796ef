package audit

import (
	"context"
	"fmt"
	"log/slog"

	"dcx/pkg/requestcontext"
)

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger provides structured audit logging with optional event emission.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger. emitter may be nil.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Log logs an audit event to text and emits it when an emitter is set.
// Well-known attribute keys (subject, credential_type, decision, reason) are
// lifted into the Event; request_id comes from ctx.
//
//	logger.Log(ctx, audit.EventCredentialIssued, "subject", applicantDID, "credential_type", typeID)
func (l *Logger) Log(ctx context.Context, event AuditEvent, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}

	if l.textLogger != nil {
		args := append(attributes, "event", string(event), "log_type", "audit")
		l.textLogger.InfoContext(ctx, string(event), args...)
	}

	if l.emitter == nil {
		return
	}
	err := l.emitter.Emit(ctx, Event{
		Action:         string(event),
		Subject:        extract(attributes, "subject"),
		CredentialType: extract(attributes, "credential_type"),
		Decision:       extract(attributes, "decision"),
		Reason:         extract(attributes, "reason"),
		RequestID:      requestID,
	})
	if err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", string(event),
		)
	}
}

// extract returns the value following key in a slog-style key/value list.
func extract(attributes []any, key string) string {
	for i := 0; i+1 < len(attributes); i += 2 {
		if k, ok := attributes[i].(string); ok && k == key {
			switch v := attributes[i+1].(type) {
			case string:
				return v
			case fmt.Stringer:
				return v.String()
			default:
				return fmt.Sprint(v)
			}
		}
	}
	return ""
}
