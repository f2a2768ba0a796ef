package resolver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dcx/internal/did"
	dErrors "dcx/pkg/domain-errors"
	"dcx/pkg/platform/circuit"
)

// UniversalResolver delegates to a DIF universal resolver deployment
// (GET {base}/1.0/identifiers/{did}). Consecutive transport or 5xx failures
// open the breaker so a dead resolver fails applications fast.
type UniversalResolver struct {
	baseURL string
	client  HTTPDoer
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type UniversalOption func(*UniversalResolver)

func WithUniversalHTTPClient(c HTTPDoer) UniversalOption {
	return func(u *UniversalResolver) {
		if c != nil {
			u.client = c
		}
	}
}

// WithBreaker guards upstream calls with b.
func WithBreaker(b *circuit.Breaker) UniversalOption {
	return func(u *UniversalResolver) {
		if b != nil {
			u.breaker = b
		}
	}
}

func WithUniversalLogger(l *slog.Logger) UniversalOption {
	return func(u *UniversalResolver) {
		u.logger = l
	}
}

// NewUniversalResolver resolves any method through the universal resolver
// at baseURL.
func NewUniversalResolver(baseURL string, timeout time.Duration, opts ...UniversalOption) *UniversalResolver {
	u := &UniversalResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: circuit.New("universal-resolver"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// resolutionResult is the DID resolution envelope; some deployments return a bare document instead.
type resolutionResult struct {
	DIDDocument           *did.Document  `json:"didDocument"`
	DIDResolutionMetadata map[string]any `json:"didResolutionMetadata"`
}

func (u *UniversalResolver) Resolve(ctx context.Context, id string) (*did.Document, error) {
	if !u.breaker.Allow() {
		return nil, dErrors.New(dErrors.CodeUnresolvable, "universal resolver circuit open")
	}

	endpoint := u.baseURL + "/1.0/identifiers/" + url.PathEscape(id)
	status, body, err := fetch(ctx, u.client, endpoint, `application/ld+json;profile="https://w3id.org/did-resolution", application/json`)
	if err != nil || status >= http.StatusInternalServerError {
		u.recordFailure(ctx)
	} else {
		u.breaker.RecordSuccess()
	}
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status); err != nil {
		return nil, err
	}

	var result resolutionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnresolvable, "decode resolution result")
	}
	doc := result.DIDDocument
	if doc == nil {
		doc = &did.Document{}
		if err := json.Unmarshal(body, doc); err != nil || doc.ID == "" {
			return nil, dErrors.New(dErrors.CodeUnresolvable, "resolution result has no document")
		}
	}
	if doc.ID != id {
		return nil, dErrors.New(dErrors.CodeUnresolvable, "resolved document id does not match DID")
	}
	return doc, nil
}

func (u *UniversalResolver) recordFailure(ctx context.Context) {
	if change := u.breaker.RecordFailure(); change.Opened && u.logger != nil {
		u.logger.WarnContext(ctx, "circuit opened", "breaker", u.breaker.Name())
	}
}
