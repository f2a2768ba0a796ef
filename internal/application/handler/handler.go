package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dcx/internal/application/service"
	"dcx/internal/credential/models"
	dErrors "dcx/pkg/domain-errors"
	"dcx/pkg/platform/httputil"
	"dcx/pkg/requestcontext"
)

// Headers carrying the applicant DID and the base64 signature over the body.
const (
	HeaderApplicant = "X-Request-Applicant"
	HeaderSignature = "X-Request-Signature"
)

// Service defines the application pipeline operations exposed over HTTP.
type Service interface {
	CredentialTypes() []string
	Manifest(ctx context.Context, typeID string) (*models.CredentialManifest, error)
	Apply(ctx context.Context, req service.ApplyRequest) (any, error)
}

// Handler exposes the issuance service over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a Handler backed by svc.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register registers the issuance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/credential-types", h.handleCredentialTypes)
	r.Get("/api/{typeId}/manifest", h.handleManifest)
	r.Post("/api/{typeId}/application", h.handleApplication)
}

func (h *Handler) handleCredentialTypes(w http.ResponseWriter, _ *http.Request) {
	types := h.service.CredentialTypes()
	if types == nil {
		types = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, types)
}

func (h *Handler) handleManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	typeID := chi.URLParam(r, "typeId")

	manifest, err := h.service.Manifest(ctx, typeID)
	if err != nil {
		h.logger.WarnContext(ctx, "manifest lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"credential_type", typeID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, manifest)
}

func (h *Handler) handleApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	typeID := chi.URLParam(r, "typeId")

	applicant := strings.TrimSpace(r.Header.Get(HeaderApplicant))
	sig := strings.TrimSpace(r.Header.Get(HeaderSignature))
	if applicant == "" || sig == "" {
		h.logger.WarnContext(ctx, "application missing signing headers",
			"request_id", requestID,
			"credential_type", typeID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"x-request-applicant and x-request-signature headers are required"))
		return
	}

	body, ok := httputil.ReadBody(w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Apply(ctx, service.ApplyRequest{
		TypeID:       typeID,
		Body:         body,
		ApplicantDID: applicant,
		Signature:    sig,
	})
	if err != nil {
		// The service has already logged and audited the rejection.
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
