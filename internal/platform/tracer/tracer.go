// Package tracer provides a small tracing abstraction so the pipeline,
// resolvers and reconciler can emit spans without depending on
// OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: for tests
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span; the returned context carries it to child operations.
	//
	//   ctx, span := t.Start(ctx, tracer.SpanApplicationResolve,
	//       tracer.String(tracer.AttrDIDMethod, "key"),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String returns a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanApplication          = "application.apply"
	SpanApplicationResolve   = "application.resolve"
	SpanApplicationVerify    = "application.verify"
	SpanApplicationValidate  = "application.validate"
	SpanApplicationDispatch  = "application.dispatch"
	SpanDIDResolve           = "did.resolve"
	SpanReconcile            = "dwn.reconcile"
	SpanReconcileProtocol    = "dwn.reconcile.protocol"
	SpanReconcileManifests   = "dwn.reconcile.manifests"
	SpanReconcileCreateWrite = "dwn.reconcile.create"
)

// Attribute keys.
const (
	AttrCredentialType = "credential_type"
	AttrDIDMethod      = "did.method"
	AttrCacheHit       = "cache.hit"
	AttrManifestID     = "manifest.id"
	AttrManifestCount  = "manifest.count"
	AttrRemoteCount    = "remote.count"
	AttrAttempt        = "attempt"
)
