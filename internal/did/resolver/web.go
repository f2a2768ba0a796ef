package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dcx/internal/did"
	dErrors "dcx/pkg/domain-errors"
)

const maxDocumentBytes = 1 << 20

// WebResolver fetches did:web documents over HTTPS. The host comes from the
// applicant, so by default only public addresses are dialled.
type WebResolver struct {
	client       HTTPDoer
	scheme       string
	timeout      time.Duration
	allowPrivate bool
}

// WebOption configures a WebResolver.
type WebOption func(*WebResolver)

func WithWebHTTPClient(c HTTPDoer) WebOption {
	return func(w *WebResolver) {
		if c != nil {
			w.client = c
		}
	}
}

// WithInsecureScheme fetches over plain http; only for tests against httptest servers.
func WithInsecureScheme() WebOption {
	return func(w *WebResolver) {
		w.scheme = "http"
	}
}

// WithPrivateNetworks lets the default client reach loopback and private
// addresses; only for tests and single-host development.
func WithPrivateNetworks() WebOption {
	return func(w *WebResolver) {
		w.allowPrivate = true
	}
}

// NewWebResolver builds a did:web resolver. Unless WithWebHTTPClient supplies
// one, its client refuses loopback, private and link-local destinations.
func NewWebResolver(timeout time.Duration, opts ...WebOption) *WebResolver {
	w := &WebResolver{scheme: "https", timeout: timeout}
	for _, opt := range opts {
		opt(w)
	}
	if w.client == nil {
		if w.allowPrivate {
			w.client = &http.Client{Timeout: timeout}
		} else {
			w.client = publicClient(timeout)
		}
	}
	return w
}

// DocumentURL maps did:web:<host>[:<path>...] to its did.json location.
func (w *WebResolver) DocumentURL(id string) (string, error) {
	parsed, err := did.Parse(id)
	if err != nil {
		return "", err
	}
	if parsed.Method != did.MethodWeb {
		return "", dErrors.New(dErrors.CodeUnresolvable, "not a did:web")
	}
	segments := strings.Split(parsed.ID, ":")
	host, err := url.PathUnescape(segments[0])
	if err != nil || host == "" {
		return "", dErrors.New(dErrors.CodeUnresolvable, "malformed did:web host")
	}
	path := "/.well-known"
	if len(segments) > 1 {
		parts := make([]string, 0, len(segments)-1)
		for _, s := range segments[1:] {
			p, err := url.PathUnescape(s)
			if err != nil || p == "" {
				return "", dErrors.New(dErrors.CodeUnresolvable, "malformed did:web path")
			}
			parts = append(parts, url.PathEscape(p))
		}
		path = "/" + strings.Join(parts, "/")
	}
	return fmt.Sprintf("%s://%s%s/did.json", w.scheme, host, path), nil
}

func (w *WebResolver) Resolve(ctx context.Context, id string) (*did.Document, error) {
	u, err := w.DocumentURL(id)
	if err != nil {
		return nil, err
	}
	status, body, err := fetch(ctx, w.client, u, "application/did+json, application/json")
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	var doc did.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnresolvable, "decode did:web document")
	}
	if doc.ID != id {
		return nil, dErrors.New(dErrors.CodeUnresolvable, "did:web document id does not match DID")
	}
	return &doc, nil
}

// fetch GETs u. A non-nil error means the round trip itself failed.
func fetch(ctx context.Context, client HTTPDoer, u, accept string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, dErrors.Wrap(err, dErrors.CodeUnresolvable, "build resolution request")
	}
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return 0, nil, dErrors.Wrap(err, dErrors.CodeUnresolvable, "resolution timeout")
		}
		return 0, nil, dErrors.Wrap(err, dErrors.CodeUnresolvable, "resolution request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return 0, nil, dErrors.Wrap(err, dErrors.CodeUnresolvable, "read resolution response")
	}
	return resp.StatusCode, body, nil
}

func checkStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return dErrors.New(dErrors.CodeUnresolvable, "DID not found")
	default:
		return dErrors.New(dErrors.CodeUnresolvable, fmt.Sprintf("resolver returned status %d", status))
	}
}
