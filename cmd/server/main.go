package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dcx/internal/application/handler"
	"dcx/internal/application/service"
	"dcx/internal/credential/registry"
	"dcx/internal/did"
	"dcx/internal/did/cache"
	"dcx/internal/did/resolver"
	"dcx/internal/dwn"
	"dcx/internal/dwn/jsonrpc"
	"dcx/internal/dwn/memory"
	"dcx/internal/dwn/reconciler"
	"dcx/internal/identity"
	"dcx/internal/issuance/example"
	"dcx/internal/platform/config"
	"dcx/internal/platform/health"
	"dcx/internal/platform/kafka/producer"
	"dcx/internal/platform/logger"
	"dcx/internal/platform/metrics"
	"dcx/internal/platform/redis"
	"dcx/internal/platform/tracer"
	"dcx/internal/presentation"
	httptransport "dcx/internal/transport/http"
	"dcx/pkg/platform/audit"
	"dcx/pkg/platform/audit/publisher"
	auditkafka "dcx/pkg/platform/audit/store/kafka"
	"dcx/pkg/platform/circuit"
	"dcx/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
	auditBufferSize   = 1024
)

// main wires high-level dependencies, reconciles the issuer's DWN and serves
// the issuance API. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	log.Info("initializing credential issuer",
		"addr", cfg.Addr,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
		"external_url", cfg.ExternalURL(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("issuer stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	tr := tracer.NewOTel()

	endpoints := cfg.Identity.ServiceEndpoints
	if len(endpoints) == 0 {
		endpoints = []string{cfg.ExternalURL()}
	}
	issuer, err := identity.LoadOrCreate(cfg.Identity.KeyFile, identity.DWNServices(endpoints), identity.WithLogger(log))
	if err != nil {
		return err
	}
	log.Info("issuer identity ready", "did", issuer.DID)

	redisClient, err := redis.New(ctx, cfg.Redis, reg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // best-effort on shutdown
		go redisClient.RunPoolStats(ctx, poolStatsInterval)
	}

	auditor, closeAudit, err := newAuditor(cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	validator := presentation.NewValidator(presentation.WithLogger(log))
	exampleType, err := example.New(cfg.Identity.ManifestDir, validator, example.WithLogger(log))
	if err != nil {
		return err
	}
	credentials, err := registry.New(exampleType)
	if err != nil {
		return err
	}

	dwnClient, err := newDWNClient(cfg, issuer, m, log)
	if err != nil {
		return err
	}
	rec := reconciler.New(dwnClient, credentials, issuer.DID,
		reconciler.WithConcurrency(cfg.DWN.Concurrency),
		reconciler.WithTracer(tr),
		reconciler.WithMetrics(m),
		reconciler.WithLogger(log),
		reconciler.WithAuditLogger(auditor),
	)
	if err := rec.Run(ctx, cfg.DWN.ReconcileRetries); err != nil {
		log.Error("dwn setup failed", "error", err)
		return err
	}

	svc := service.New(credentials, newResolver(cfg, redisClient, m, tr, log), issuer,
		service.WithValidator(validator),
		service.WithTracer(tr),
		service.WithMetrics(m),
		service.WithAuditLogger(auditor),
		service.WithLogger(log),
	)

	healthHandler := health.New(cfg.Environment, health.WithIssuer(issuer.DID))
	healthHandler.RegisterCheck("dwn", rec.Check)
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", redisClient.Health)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		RequestMetrics: request.NewMetrics(reg),
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}, healthHandler, handler.New(svc, log))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newDWNClient talks JSON-RPC to DWN_ENDPOINT, or keeps records in process
// when no endpoint is configured.
func newDWNClient(cfg config.Server, issuer *identity.Identity, m *metrics.Metrics, log *slog.Logger) (dwn.Client, error) {
	if cfg.DWN.Endpoint == "" {
		log.Warn("DWN_ENDPOINT not set, using in-memory dwn")
		return memory.New(), nil
	}
	signer, err := issuer.Signer()
	if err != nil {
		return nil, err
	}
	return jsonrpc.New(cfg.DWN.Endpoint, cfg.DWN.Timeout,
		jsonrpc.WithAuthor(jsonrpc.Author{
			DID:       issuer.DID,
			KeyID:     issuer.KeyID(),
			PublicKey: issuer.PublicKey(),
			Signer:    signer,
		}),
		jsonrpc.WithMetrics(m),
		jsonrpc.WithLogger(log),
	), nil
}

// newResolver resolves did:key locally, did:web over HTTPS and, when
// configured, everything else through a universal resolver. Documents are
// cached in Redis when available, in process otherwise.
func newResolver(cfg config.Server, redisClient *redis.Client, m *metrics.Metrics, tr tracer.Tracer, log *slog.Logger) resolver.Resolver {
	opts := []resolver.RegistryOption{
		resolver.WithMethod(did.MethodKey, resolver.KeyResolver{}),
		resolver.WithMethod(did.MethodWeb, resolver.NewWebResolver(cfg.Resolver.Timeout)),
		resolver.WithTracer(tr),
		resolver.WithMetrics(m),
	}
	if cfg.Resolver.UniversalResolverURL != "" {
		breaker := circuit.New("universal-resolver")
		opts = append(opts, resolver.WithFallback(resolver.NewUniversalResolver(
			cfg.Resolver.UniversalResolverURL, cfg.Resolver.Timeout,
			resolver.WithBreaker(breaker),
			resolver.WithUniversalLogger(log),
		)))
	}
	chain := resolver.NewRegistry(opts...)

	var c cache.Cache
	if redisClient != nil {
		c = cache.NewRedis(redisClient, cfg.Resolver.CacheTTL)
	} else {
		c = cache.NewMemory(cfg.Resolver.CacheSize, cfg.Resolver.CacheTTL)
	}
	return resolver.NewCached(chain, c, m, log)
}

// newAuditor publishes audit events to Kafka when brokers are configured.
// Without brokers, events only reach the structured log.
func newAuditor(cfg config.Server, log *slog.Logger) (*audit.Logger, func(), error) {
	if cfg.Kafka.Brokers == "" {
		return audit.NewLogger(log, nil), func() {}, nil
	}
	p, err := producer.New(producer.Config{Brokers: cfg.Kafka.Brokers}, log)
	if err != nil {
		return nil, nil, err
	}
	pub := publisher.NewPublisher(auditkafka.New(p, cfg.Kafka.AuditTopic),
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithPublisherLogger(log),
	)
	closeFn := func() {
		pub.Close()
		if err := p.Close(); err != nil {
			log.Warn("closing kafka producer", "error", err)
		}
	}
	return audit.NewLogger(log, pub), closeFn, nil
}
