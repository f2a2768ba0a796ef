// Package example provides the EXAMPLE-CREDENTIAL type: applicants holding
// an ExampleCred receive a self-issued JWT-VC in return.
package example

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dcx/internal/credential/models"
	"dcx/internal/credential/registry"
	"dcx/internal/did"
	"dcx/internal/issuance/jwtvc"
	"dcx/internal/presentation"
	dErrors "dcx/pkg/domain-errors"
)

const (
	TypeID = "EXAMPLE-CREDENTIAL"

	// OutputDescriptorID names the manifest output the issued credential fulfils.
	OutputDescriptorID = "example_output"
	CredentialType     = "ExampleCred"
)

//go:embed manifest.json
var manifestJSON []byte

// Response is the credential response returned to the applicant.
type Response struct {
	Fulfillment          Fulfillment `json:"fulfillment"`
	VerifiableCredential []string    `json:"verifiableCredential"`
}

type Fulfillment struct {
	DescriptorMap []models.Descriptor `json:"descriptor_map"`
}

// Manifest returns the manifest template. A file named EXAMPLE-CREDENTIAL.json
// in dir replaces the embedded one; an empty dir always uses the embedded one.
func Manifest(dir string) (*models.CredentialManifest, error) {
	raw := manifestJSON
	if dir != "" {
		b, err := os.ReadFile(filepath.Join(dir, TypeID+".json"))
		switch {
		case err == nil:
			raw = b
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read example manifest")
		}
	}
	m, err := models.ParseManifest(raw)
	if err != nil {
		return nil, err
	}
	if m.ID != TypeID {
		return nil, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("example manifest id %q, want %q", m.ID, TypeID))
	}
	return m, nil
}

// Handler issues the example credential to holders proving control of their DID.
type Handler struct {
	definition *models.PresentationDefinition
	validator  *presentation.Validator
	validity   time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithValidity sets how long issued credentials stay valid. Zero means no expiry.
func WithValidity(d time.Duration) Option {
	return func(h *Handler) {
		h.validity = d
	}
}

// NewHandler returns a Handler for manifest. Credentials do not expire unless
// WithValidity is given.
func NewHandler(manifest *models.CredentialManifest, validator *presentation.Validator, opts ...Option) *Handler {
	h := &Handler{
		definition: manifest.PresentationDefinition,
		validator:  validator,
		now:        time.Now,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Issue selects the submitted credentials answering the presentation
// definition and signs an ExampleCred for the applicant.
func (h *Handler) Issue(ctx context.Context, req registry.IssuanceRequest) (any, error) {
	selected, err := h.validator.SelectCredentials(ctx, req.Payload.VerifiableCredential, h.definition)
	if err != nil {
		return nil, fmt.Errorf("select credentials: %w", err)
	}
	h.logger.InfoContext(ctx, "selected credentials for issuance",
		"credential_type", TypeID,
		"submitted", len(req.Payload.VerifiableCredential),
		"selected", len(selected),
	)

	now := h.now()
	c := jwtvc.Credential{
		Type:     CredentialType,
		Issuer:   req.IssuerDID,
		Subject:  req.ApplicantDID,
		Data:     map[string]any{"value": 10},
		IssuedAt: now,
	}
	if h.validity > 0 {
		c.ExpiresAt = now.Add(h.validity)
	}
	token, err := jwtvc.Sign(req.Signer, did.KeyID(req.IssuerDID), c)
	if err != nil {
		return nil, err
	}

	return &Response{
		Fulfillment: Fulfillment{DescriptorMap: []models.Descriptor{{
			ID:     OutputDescriptorID,
			Format: presentation.FormatJWTVC,
			Path:   "$.verifiableCredential[0]",
		}}},
		VerifiableCredential: []string{token},
	}, nil
}

// New builds the registrable credential type.
func New(manifestDir string, validator *presentation.Validator, opts ...Option) (registry.CredentialType, error) {
	m, err := Manifest(manifestDir)
	if err != nil {
		return registry.CredentialType{}, err
	}
	return registry.CredentialType{Manifest: m, Handler: NewHandler(m, validator, opts...)}, nil
}
