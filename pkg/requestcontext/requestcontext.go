// Package requestcontext carries per-request metadata through context.Context.
package requestcontext

import "context"

type contextKey string

const (
	requestIDKey    contextKey = "request_id"
	clientIPKey     contextKey = "client_ip"
	userAgentKey    contextKey = "user_agent"
	applicantDIDKey contextKey = "applicant_did"
)

// WithRequestID stores the correlation ID for the request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the correlation ID, or "" outside a request.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithClientMetadata stores the remote address and user agent.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, ip)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(userAgentKey).(string)
	return v
}

// WithApplicantDID records the DID claimed in the x-request-applicant header.
// The value is unverified until the pipeline's signature gate passes.
func WithApplicantDID(ctx context.Context, did string) context.Context {
	return context.WithValue(ctx, applicantDIDKey, did)
}

func ApplicantDID(ctx context.Context) string {
	v, _ := ctx.Value(applicantDIDKey).(string)
	return v
}
