package request

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcx/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	cases := []struct {
		name   string
		header string
		reused bool
	}{
		{"absent", "", false},
		{"plain", "apply-7f3a", true},
		{"dotted trace id", "trace.span_1234", true},
		{"at max length", strings.Repeat("a", MaxRequestIDLength), true},
		{"over max length", strings.Repeat("a", MaxRequestIDLength+1), false},
		{"newline", "ok\ninjected", false},
		{"space", "request id", false},
		{"quote", `request"id`, false},
		{"null byte", "request\x00id", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = requestcontext.RequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/credential-types", nil)
			if tc.header != "" {
				req.Header.Set("X-Request-ID", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			assert.Equal(t, got, seen)
			if tc.reused {
				assert.Equal(t, tc.header, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err, "expected a generated UUID, got %q", got)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestID, ClientMetadata, Logger(logger))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})
	r.Post("/api/{typeId}/application", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, buf.Len(), "successful health checks are not logged")

	req := httptest.NewRequest(http.MethodPost, "/api/EXAMPLE-CREDENTIAL/application", nil)
	req.Header.Set(HeaderApplicant, "did:key:z6MkApplicant")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.EqualValues(t, http.StatusBadRequest, entry["status"])
	assert.Equal(t, "did:key:z6MkApplicant", entry["applicant_did"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestClientMetadata(t *testing.T) {
	t.Run("records address, agent and applicant", func(t *testing.T) {
		var ip, agent, applicant string
		handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip = requestcontext.ClientIP(ctx)
			agent = requestcontext.UserAgent(ctx)
			applicant = requestcontext.ApplicantDID(ctx)
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/EXAMPLE-CREDENTIAL/application", nil)
		req.RemoteAddr = "192.0.2.10:51234"
		req.Header.Set("User-Agent", "wallet/1.0")
		req.Header.Set(HeaderApplicant, "did:key:z6MkExample")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "192.0.2.10", ip)
		assert.Equal(t, "wallet/1.0", agent)
		assert.Equal(t, "did:key:z6MkExample", applicant)
	})

	t.Run("leaves applicant empty without header", func(t *testing.T) {
		var applicant string
		handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			applicant = requestcontext.ApplicantDID(r.Context())
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Empty(t, applicant)
	})
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/credential-types", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())
}

func TestContentTypeJSON(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := map[string]int{
		"":                                http.StatusNoContent,
		"application/json":                http.StatusNoContent,
		"application/json; charset=utf-8": http.StatusNoContent,
		"text/plain":                      http.StatusUnsupportedMediaType,
	}
	for ct, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/x/application", nil)
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		w := httptest.NewRecorder()
		ContentTypeJSON(next).ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "content type %q", ct)
	}
}

func TestLatencyMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Get("/api/{typeId}/manifest", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/A/manifest", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/B/manifest", nil))

	count, err := testutil.GatherAndCount(reg, "dcx_endpoint_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "both type IDs share one route-pattern series")
}
