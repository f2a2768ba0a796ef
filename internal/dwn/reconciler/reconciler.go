// Package reconciler brings the issuer's DWN in line with the local
// registry: the credential-issuance protocol is configured and every
// manifest template is published exactly once.
//
// Every decision is driven by a fresh read of the remote store, so Setup is
// idempotent and safe to re-run after a partial failure.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"dcx/internal/credential/models"
	"dcx/internal/dwn"
	"dcx/internal/platform/metrics"
	"dcx/internal/platform/tracer"
	"dcx/internal/protocol"
	dErrors "dcx/pkg/domain-errors"
	"dcx/pkg/platform/audit"
)

const defaultConcurrency = 4

// ManifestSource supplies manifest templates stamped with the issuer DID.
type ManifestSource interface {
	Manifests(issuerDID string) ([]*models.CredentialManifest, error)
}

// Reconciler brings the issuer's DWN in line with the local protocol
// definition and credential manifests.
type Reconciler struct {
	client      dwn.Client
	source      ManifestSource
	issuerDID   string
	definition  dwn.ProtocolDefinition
	concurrency int
	tracer      tracer.Tracer
	metrics     *metrics.Metrics
	logger      *slog.Logger
	auditor     *audit.Logger
	reconciled  atomic.Bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithConcurrency bounds parallel record reads and writes.
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithDefinition overrides the protocol definition to publish.
func WithDefinition(def dwn.ProtocolDefinition) Option {
	return func(r *Reconciler) {
		r.definition = def
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Reconciler) {
		if t != nil {
			r.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithAuditLogger records every protocol and manifest write.
func WithAuditLogger(a *audit.Logger) Option {
	return func(r *Reconciler) {
		r.auditor = a
	}
}

// New creates a Reconciler publishing source's manifests to issuerDID's DWN
// through client.
func New(client dwn.Client, source ManifestSource, issuerDID string, opts ...Option) *Reconciler {
	r := &Reconciler{
		client:      client,
		source:      source,
		issuerDID:   issuerDID,
		definition:  protocol.Definition(),
		concurrency: defaultConcurrency,
		tracer:      tracer.NewNoop(),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run calls Setup, retrying up to retries more times with exponential
// backoff. Zero retries means a single attempt.
func (r *Reconciler) Run(ctx context.Context, retries uint64) error {
	attempt := 0
	op := func() error {
		attempt++
		err := r.Setup(ctx)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	notify := func(err error, wait time.Duration) {
		r.logger.WarnContext(ctx, "dwn setup failed, retrying",
			"attempt", attempt,
			"retry_in", wait,
			"error", err,
		)
	}
	return backoff.RetryNotify(op, policy, notify)
}

// retryable is false for failures a second attempt cannot fix.
func retryable(err error) bool {
	return !dErrors.HasCode(err, dErrors.CodeInvariantViolation) &&
		!dErrors.HasCode(err, dErrors.CodeInternal)
}

// Setup runs one reconciliation pass: protocol first, then manifests.
func (r *Reconciler) Setup(ctx context.Context) (err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanReconcile)
	defer func() {
		span.End(err)
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
		}
		r.metrics.ObserveReconcile(outcome)
	}()

	r.logger.InfoContext(ctx, "setting up dwn", "issuer_did", r.issuerDID, "protocol", r.definition.Protocol)

	protocols, err := r.QueryProtocol(ctx)
	if err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "queried credential-issuance protocol", "found", len(protocols))
	if len(protocols) == 0 {
		if err := r.ConfigureProtocol(ctx); err != nil {
			return err
		}
	}

	records, err := r.QueryManifests(ctx)
	if err != nil {
		return err
	}
	remoteIDs, err := r.RemoteManifestIDs(ctx, records)
	if err != nil {
		return err
	}

	templates, err := r.source.Manifests(r.issuerDID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load manifest templates")
	}
	missing := FilterManifests(templates, remoteIDs)
	r.logger.InfoContext(ctx, "compared manifests",
		"templates", len(templates),
		"remote", len(remoteIDs),
		"unwritten", len(missing),
	)

	created, err := r.CreateManifests(ctx, missing)
	r.logger.InfoContext(ctx, "created manifests", "count", created)
	if err != nil {
		return err
	}

	r.reconciled.Store(true)
	return nil
}

// QueryProtocol lists credential-issuance protocol definitions on the issuer's DWN.
func (r *Reconciler) QueryProtocol(ctx context.Context) ([]dwn.ProtocolDefinition, error) {
	reply, err := r.client.QueryProtocols(ctx, r.issuerDID, dwn.ProtocolsFilter{Protocol: r.definition.Protocol})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRemoteStore, "query protocols")
	}
	if err := dwn.Check(dwn.OpProtocolsQuery, reply.Status); err != nil {
		return nil, err
	}
	return reply.Protocols, nil
}

// ConfigureProtocol configures the protocol and sends it to the issuer's DWN.
func (r *Reconciler) ConfigureProtocol(ctx context.Context) (err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanReconcileProtocol)
	defer func() { span.End(err) }()

	reply, err := r.client.ConfigureProtocol(ctx, r.definition)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeRemoteStore, "configure protocol")
	}
	if err := dwn.Check(dwn.OpProtocolsConfigure, reply.Status); err != nil {
		return err
	}
	if reply.Protocol == nil {
		return dErrors.New(dErrors.CodeRemoteStore, "configure protocol: no protocol in reply")
	}

	status, err := reply.Protocol.Send(ctx, r.issuerDID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeRemoteStore, "send protocol")
	}
	if err := dwn.Check(dwn.OpProtocolsSend, status); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "configured credential-issuance protocol", "protocol", r.definition.Protocol)
	r.audit(ctx, audit.EventProtocolConfigured, "decision", "configured", "reason", r.definition.Protocol)
	return nil
}

// QueryManifests lists manifest records on the issuer's DWN.
func (r *Reconciler) QueryManifests(ctx context.Context) ([]dwn.Record, error) {
	reply, err := r.client.QueryRecords(ctx, r.issuerDID, protocol.ManifestFilter())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRemoteStore, "query manifests")
	}
	if err := dwn.Check(dwn.OpRecordsQuery, reply.Status); err != nil {
		return nil, err
	}
	return reply.Records, nil
}

// RemoteManifestIDs reads every record and returns the manifest ids they
// hold, in record order. Records whose data has no id are skipped.
func (r *Reconciler) RemoteManifestIDs(ctx context.Context, records []dwn.Record) (_ []string, err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanReconcileManifests, tracer.Int(tracer.AttrRemoteCount, len(records)))
	defer func() { span.End(err) }()

	ids := make([]string, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			reply, err := r.client.ReadRecord(gctx, r.issuerDID, rec.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeRemoteStore, fmt.Sprintf("read record %s", rec.ID))
			}
			if err := dwn.Check(dwn.OpRecordsRead, reply.Status); err != nil {
				return err
			}
			if reply.Record == nil {
				return nil
			}
			var body struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(reply.Record.Data, &body); err != nil {
				r.logger.WarnContext(gctx, "manifest record is not json", "record_id", rec.ID, "error", err)
				return nil
			}
			ids[i] = body.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// FilterManifests returns the templates whose id is not among remoteIDs,
// in template order.
func FilterManifests(templates []*models.CredentialManifest, remoteIDs []string) []*models.CredentialManifest {
	present := make(map[string]struct{}, len(remoteIDs))
	for _, id := range remoteIDs {
		present[id] = struct{}{}
	}
	var missing []*models.CredentialManifest
	for _, m := range templates {
		if _, ok := present[m.ID]; !ok {
			missing = append(missing, m)
		}
	}
	return missing
}

// CreateManifests writes and sends every manifest. Each one is attempted even
// when others fail; the count of successes is returned with the joined errors.
func (r *Reconciler) CreateManifests(ctx context.Context, manifests []*models.CredentialManifest) (int, error) {
	var (
		mu      sync.Mutex
		errs    []error
		created int
	)
	// A plain group: one failed write must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, m := range manifests {
		g.Go(func() error {
			err := r.createManifest(ctx, m)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			created++
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return created, dErrors.Wrap(err, dErrors.CodeRemoteStore, fmt.Sprintf("create manifests: %d of %d failed", len(errs), len(manifests)))
	}
	return created, nil
}

func (r *Reconciler) createManifest(ctx context.Context, m *models.CredentialManifest) (err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanReconcileCreateWrite, tracer.String(tracer.AttrManifestID, m.ID))
	defer func() { span.End(err) }()

	m.Issuer.ID = r.issuerDID
	reply, err := r.client.CreateRecord(ctx, protocol.ManifestRecord(m))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeRemoteStore, fmt.Sprintf("create manifest %s", m.ID))
	}
	if err := dwn.Check(dwn.OpRecordsCreate, reply.Status); err != nil {
		return err
	}
	if reply.Record == nil {
		return dErrors.New(dErrors.CodeRemoteStore, fmt.Sprintf("create manifest %s: no record in reply", m.ID))
	}

	status, err := reply.Record.Send(ctx, r.issuerDID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeRemoteStore, fmt.Sprintf("send manifest %s", m.ID))
	}
	if err := dwn.Check(dwn.OpRecordsSend, status); err != nil {
		return err
	}

	r.metrics.IncrementManifestsCreated()
	r.logger.InfoContext(ctx, "sent manifest to remote dwn", "manifest_id", m.ID, "record_id", reply.Record.ID())
	r.audit(ctx, audit.EventManifestPublished, "credential_type", m.ID, "decision", "published")
	return nil
}

// Check reports readiness: nil once a Setup pass has completed.
func (r *Reconciler) Check(context.Context) error {
	if !r.reconciled.Load() {
		return errors.New("dwn not reconciled")
	}
	return nil
}

func (r *Reconciler) audit(ctx context.Context, event audit.AuditEvent, attrs ...any) {
	if r.auditor == nil {
		return
	}
	r.auditor.Log(ctx, event, append([]any{"subject", r.issuerDID}, attrs...)...)
}
