// Package registry holds the credential types this issuer offers, in
// registration order. It is built once at startup and read-only afterwards.
package registry

import (
	"context"
	"fmt"

	"dcx/internal/credential/models"
	"dcx/internal/signature"
	dErrors "dcx/pkg/domain-errors"
)

// IssuanceRequest is everything a type-specific handler receives once an
// application has been verified. KeyID names the applicant's verification
// method, the key the application signature was checked against. Signer
// holds the issuer's key, so credentials it signs are identified by
// did.KeyID(IssuerDID).
type IssuanceRequest struct {
	Payload      *models.ApplicationPayload
	ApplicantDID string
	IssuerDID    string
	KeyID        string
	Signer       signature.Signer
}

// IssuanceHandler turns a verified application into a credential response.
// The returned value is rendered as the JSON response body.
type IssuanceHandler interface {
	Issue(ctx context.Context, req IssuanceRequest) (any, error)
}

// HandlerFunc adapts a function to IssuanceHandler.
type HandlerFunc func(ctx context.Context, req IssuanceRequest) (any, error)

func (f HandlerFunc) Issue(ctx context.Context, req IssuanceRequest) (any, error) {
	return f(ctx, req)
}

// CredentialType binds a manifest template to its issuance handler.
type CredentialType struct {
	Manifest *models.CredentialManifest
	Handler  IssuanceHandler
}

// ID is the manifest id, which doubles as the URL type id.
func (c CredentialType) ID() string {
	if c.Manifest == nil {
		return ""
	}
	return c.Manifest.ID
}

// Registry is the immutable set of credential types the issuer offers.
type Registry struct {
	types []CredentialType
	index map[string]int
}

// New validates and indexes types. Ids must be non-empty and unique.
func New(types ...CredentialType) (*Registry, error) {
	r := &Registry{
		types: make([]CredentialType, 0, len(types)),
		index: make(map[string]int, len(types)),
	}
	for i, t := range types {
		id := t.ID()
		if id == "" {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("credential type %d has no manifest id", i))
		}
		if t.Handler == nil {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("credential type %s has no handler", id))
		}
		if _, dup := r.index[id]; dup {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("duplicate credential type %s", id))
		}
		r.index[id] = len(r.types)
		r.types = append(r.types, t)
	}
	return r, nil
}

// AllTypeIDs lists type ids in registration order.
func (r *Registry) AllTypeIDs() []string {
	ids := make([]string, len(r.types))
	for i, t := range r.types {
		ids[i] = t.ID()
	}
	return ids
}

// Lookup returns the registered type. Callers must treat its manifest as
// read-only; use ManifestFor for a copy.
func (r *Registry) Lookup(id string) (CredentialType, error) {
	i, ok := r.index[id]
	if !ok {
		return CredentialType{}, dErrors.New(dErrors.CodeNotFound, "unknown credential type")
	}
	return r.types[i], nil
}

// ManifestFor returns a copy of the manifest with issuer.id set to issuerDID.
func (r *Registry) ManifestFor(id, issuerDID string) (*models.CredentialManifest, error) {
	t, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	return stamped(t.Manifest, issuerDID)
}

// Manifests returns a stamped copy of every template, in registration order.
func (r *Registry) Manifests(issuerDID string) ([]*models.CredentialManifest, error) {
	out := make([]*models.CredentialManifest, 0, len(r.types))
	for _, t := range r.types {
		m, err := stamped(t.Manifest, issuerDID)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func stamped(m *models.CredentialManifest, issuerDID string) (*models.CredentialManifest, error) {
	c, err := m.Clone()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "copy manifest")
	}
	c.Issuer.ID = issuerDID
	return c, nil
}
