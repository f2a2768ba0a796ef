package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	Action         string    `json:"action"`
	Subject        string    `json:"subject,omitempty"` // applicant DID, or issuer DID for reconciliation
	CredentialType string    `json:"credential_type,omitempty"`
	Decision       string    `json:"decision,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventApplicationReceived AuditEvent = "application_received"
	EventApplicationRejected AuditEvent = "application_rejected"
	EventCredentialIssued    AuditEvent = "credential_issued"
	EventIssuanceFailed      AuditEvent = "issuance_failed"
	EventProtocolConfigured  AuditEvent = "protocol_configured"
	EventManifestPublished   AuditEvent = "manifest_published"
)

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
