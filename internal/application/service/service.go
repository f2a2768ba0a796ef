// Package service runs the credential application pipeline: look up the
// credential type, check the body shape, resolve the applicant, verify the
// request signature, check the presentation, then dispatch to the type's
// handler. Steps run strictly in order and the handler only ever sees
// verified applications.
package service

import (
	"context"
	"crypto"
	"errors"
	"log/slog"
	"time"

	"dcx/internal/credential/models"
	"dcx/internal/credential/registry"
	"dcx/internal/did"
	"dcx/internal/did/resolver"
	"dcx/internal/identity"
	"dcx/internal/platform/metrics"
	"dcx/internal/platform/tracer"
	"dcx/internal/presentation"
	"dcx/internal/signature"
	dErrors "dcx/pkg/domain-errors"
	"dcx/pkg/platform/audit"
	"dcx/pkg/platform/httputil"
	"dcx/pkg/requestcontext"
)

const outcomeIssued = "issued"

// ApplyRequest is an application exactly as received. Body is verified
// byte-for-byte, so it must not be re-encoded before Apply.
type ApplyRequest struct {
	TypeID       string
	Body         []byte
	ApplicantDID string
	Signature    string
}

// Service verifies credential applications and issues fulfillments.
type Service struct {
	registry  *registry.Registry
	resolver  resolver.Resolver
	issuer    *identity.Identity
	verifier  signature.Verifier
	validator *presentation.Validator
	tracer    tracer.Tracer
	metrics   *metrics.Metrics
	auditor   *audit.Logger
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithValidator replaces the presentation validator. Nil keeps the default.
func WithValidator(v *presentation.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithTracer sets the tracer for application spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMetrics enables application outcome metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditLogger records every application outcome.
func WithAuditLogger(a *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service issuing the registry's credential types as issuer.
// Applicant DIDs are resolved through res.
func New(reg *registry.Registry, res resolver.Resolver, issuer *identity.Identity, opts ...Option) *Service {
	s := &Service{
		registry:  reg,
		resolver:  res,
		issuer:    issuer,
		validator: presentation.NewValidator(),
		tracer:    tracer.NewNoop(),
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CredentialTypes lists the offered type ids in registration order.
func (s *Service) CredentialTypes() []string {
	return s.registry.AllTypeIDs()
}

// Manifest returns the manifest for typeID with the issuer DID filled in.
func (s *Service) Manifest(_ context.Context, typeID string) (*models.CredentialManifest, error) {
	return s.registry.ManifestFor(typeID, s.issuer.DID)
}

// Apply runs the pipeline and returns the handler's response.
func (s *Service) Apply(ctx context.Context, req ApplyRequest) (result any, err error) {
	start := s.now()
	ctx = requestcontext.WithApplicantDID(ctx, req.ApplicantDID)
	ctx, span := s.tracer.Start(ctx, tracer.SpanApplication, tracer.String(tracer.AttrCredentialType, req.TypeID))
	defer func() {
		span.End(err)
		outcome := outcomeIssued
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
		}
		s.metrics.ObserveApplication(req.TypeID, outcome, s.now().Sub(start).Seconds())
	}()

	ct, err := s.registry.Lookup(req.TypeID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, audit.EventApplicationReceived, req, "decision", "received")

	payload, err := decodePayload(req.Body)
	if err != nil {
		s.reject(ctx, req, err)
		return nil, err
	}
	if req.ApplicantDID == "" {
		err = dErrors.New(dErrors.CodeBadRequest, "missing applicant DID")
		s.reject(ctx, req, err)
		return nil, err
	}

	pub, err := s.resolveKey(ctx, req.ApplicantDID)
	if err != nil {
		s.reject(ctx, req, err)
		return nil, err
	}

	if err := s.verify(ctx, pub, req); err != nil {
		s.reject(ctx, req, err)
		return nil, err
	}

	if err := s.validate(ctx, payload, ct.Manifest.PresentationDefinition); err != nil {
		s.reject(ctx, req, err)
		return nil, err
	}

	result, err = s.dispatch(ctx, ct, payload, req.ApplicantDID)
	if err != nil {
		s.logger.ErrorContext(ctx, "credential handler failed",
			"credential_type", req.TypeID,
			"error", err,
		)
		s.audit(ctx, audit.EventIssuanceFailed, req, "decision", "failed")
		// The handler's message may carry applicant data; only the code leaves.
		return nil, &dErrors.Error{Code: dErrors.CodeInternal, Message: "credential issuance failed", Err: err}
	}

	s.logger.InfoContext(ctx, "credential issued", "credential_type", req.TypeID)
	s.audit(ctx, audit.EventCredentialIssued, req, "decision", outcomeIssued)
	return result, nil
}

func decodePayload(body []byte) (*models.ApplicationPayload, error) {
	return httputil.DecodeAndPrepare[models.ApplicationPayload](body)
}

func (s *Service) resolveKey(ctx context.Context, applicantDID string) (_ crypto.PublicKey, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanApplicationResolve)
	defer func() { span.End(err) }()

	doc, err := s.resolver.Resolve(ctx, applicantDID)
	if err != nil {
		return nil, unresolvable(err, "could not resolve applicant DID")
	}
	pub, err := did.FirstVerificationKey(doc)
	if err != nil {
		return nil, unresolvable(err, err.Error())
	}
	return pub, nil
}

// unresolvable reports every resolution failure as a client error, whatever
// code the resolver chain used.
func unresolvable(err error, msg string) error {
	return &dErrors.Error{Code: dErrors.CodeUnresolvable, Message: msg, Err: err}
}

func (s *Service) verify(ctx context.Context, pub crypto.PublicKey, req ApplyRequest) (err error) {
	_, span := s.tracer.Start(ctx, tracer.SpanApplicationVerify)
	defer func() { span.End(err) }()

	sig, err := signature.Decode(req.Signature)
	if err != nil {
		return err
	}
	ok, err := s.verifier.Verify(pub, sig, signature.Digest(req.Body))
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeInvalidSignature, "invalid signature")
	}
	return nil
}

func (s *Service) validate(ctx context.Context, payload *models.ApplicationPayload, pd *models.PresentationDefinition) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanApplicationValidate)
	defer func() { span.End(err) }()

	err = s.validator.AssertSatisfies(ctx, payload.VerifiableCredential, pd)
	var verr *presentation.ValidationError
	if errors.As(err, &verr) {
		return dErrors.Wrap(err, dErrors.CodeValidation, verr.Error())
	}
	return err
}

func (s *Service) dispatch(ctx context.Context, ct registry.CredentialType, payload *models.ApplicationPayload, applicantDID string) (_ any, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanApplicationDispatch)
	defer func() { span.End(err) }()

	signer, err := s.issuer.Signer()
	if err != nil {
		return nil, err
	}
	return ct.Handler.Issue(ctx, registry.IssuanceRequest{
		Payload:      payload,
		ApplicantDID: applicantDID,
		IssuerDID:    s.issuer.DID,
		KeyID:        did.KeyID(applicantDID),
		Signer:       signer,
	})
}

func (s *Service) reject(ctx context.Context, req ApplyRequest, err error) {
	s.logger.WarnContext(ctx, "application rejected",
		"credential_type", req.TypeID,
		"applicant_did", req.ApplicantDID,
		"error", err,
	)
	s.audit(ctx, audit.EventApplicationRejected, req,
		"decision", "rejected",
		"reason", string(dErrors.CodeOf(err)),
	)
}

func (s *Service) audit(ctx context.Context, event audit.AuditEvent, req ApplyRequest, attrs ...any) {
	if s.auditor == nil {
		return
	}
	s.auditor.Log(ctx, event, append([]any{"subject", req.ApplicantDID, "credential_type", req.TypeID}, attrs...)...)
}
