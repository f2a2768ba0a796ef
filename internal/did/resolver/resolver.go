// Package resolver turns DIDs into documents. Registry dispatches by method
// to KeyResolver, WebResolver or a catch-all UniversalResolver, and Cached
// adds a TTL cache in front of any Resolver.
package resolver

import (
	"context"
	"fmt"
	"net/http"

	"dcx/internal/did"
	"dcx/internal/platform/metrics"
	"dcx/internal/platform/tracer"
	dErrors "dcx/pkg/domain-errors"
)

// Resolver resolves a DID to its document. Every failure carries
// dErrors.CodeUnresolvable.
type Resolver interface {
	Resolve(ctx context.Context, id string) (*did.Document, error)
}

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Registry routes resolution by DID method.
type Registry struct {
	methods  map[string]Resolver
	fallback Resolver
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMethod registers r for the given DID method.
func WithMethod(method string, r Resolver) RegistryOption {
	return func(reg *Registry) {
		reg.methods[method] = r
	}
}

// WithFallback handles every method without a dedicated resolver.
func WithFallback(r Resolver) RegistryOption {
	return func(reg *Registry) {
		reg.fallback = r
	}
}

func WithTracer(t tracer.Tracer) RegistryOption {
	return func(reg *Registry) {
		if t != nil {
			reg.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) RegistryOption {
	return func(reg *Registry) {
		reg.metrics = m
	}
}

// NewRegistry returns a Registry with no methods registered.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		methods: make(map[string]Resolver),
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

func (r *Registry) Resolve(ctx context.Context, id string) (doc *did.Document, err error) {
	parsed, err := did.Parse(id)
	if err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, tracer.SpanDIDResolve, tracer.String(tracer.AttrDIDMethod, parsed.Method))
	defer func() { span.End(err) }()

	res, ok := r.methods[parsed.Method]
	if !ok {
		res = r.fallback
	}
	if res == nil {
		r.metrics.ObserveResolution(parsed.Method, "unsupported")
		return nil, dErrors.New(dErrors.CodeUnresolvable, fmt.Sprintf("unsupported DID method %q", parsed.Method))
	}

	doc, err = res.Resolve(ctx, id)
	if err != nil {
		r.metrics.ObserveResolution(parsed.Method, "error")
		return nil, dErrors.Wrap(err, dErrors.CodeUnresolvable, "could not resolve applicant DID")
	}
	if doc == nil {
		r.metrics.ObserveResolution(parsed.Method, "error")
		return nil, dErrors.New(dErrors.CodeUnresolvable, "could not resolve applicant DID")
	}
	r.metrics.ObserveResolution(parsed.Method, "ok")
	return doc, nil
}

// KeyResolver expands did:key identifiers locally.
type KeyResolver struct{}

func (KeyResolver) Resolve(_ context.Context, id string) (*did.Document, error) {
	return did.KeyDocument(id)
}
