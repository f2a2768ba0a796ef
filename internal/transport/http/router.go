package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"dcx/pkg/platform/middleware/request"
)

const defaultRequestTimeout = 30 * time.Second

// Routes mounts a group of endpoints. Health, issuance and any future
// surface implement it.
type Routes interface {
	Register(r chi.Router)
}

// RouterConfig carries what the router wires around the route groups.
type RouterConfig struct {
	Logger         *slog.Logger
	RequestMetrics *request.Metrics
	// Metrics serves the Prometheus exposition at /metrics when set.
	Metrics        http.Handler
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints with middleware. Browsers call the
// issuer directly, so CORS is open to every origin.
func NewRouter(cfg RouterConfig, routes ...Routes) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(request.ClientMetadata)
	r.Use(request.Logger(cfg.Logger))
	if cfg.RequestMetrics != nil {
		r.Use(request.LatencyMiddleware(cfg.RequestMetrics))
	}
	r.Use(cors.AllowAll().Handler)
	r.Use(request.Timeout(timeout))
	if cfg.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(cfg.MaxBodyBytes))
	}
	r.Use(request.ContentTypeJSON)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	for _, group := range routes {
		group.Register(r)
	}
	return r
}
