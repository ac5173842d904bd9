// Command server runs the privacy rights registry API. main wires the
// dependency graph from configuration and owns the process lifecycle;
// business logic lives in the internal feature packages.
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

	"aegis/internal/capability"
	"aegis/internal/gate"
	gatehandler "aegis/internal/gate/handler"
	gatemetrics "aegis/internal/gate/metrics"
	"aegis/internal/ledger"
	"aegis/internal/platform/config"
	"aegis/internal/platform/httpserver"
	"aegis/internal/platform/kafka"
	"aegis/internal/platform/logger"
	"aegis/internal/platform/metrics"
	"aegis/internal/platform/postgres"
	platformredis "aegis/internal/platform/redis"
	"aegis/internal/ratelimit"
	"aegis/internal/requester"
	requesterhandler "aegis/internal/requester/handler"
	"aegis/internal/subject"
	subjecthandler "aegis/internal/subject/handler"
	"aegis/internal/transparency"
	transparencyhandler "aegis/internal/transparency/handler"
	httptransport "aegis/internal/transport/http"
	"aegis/internal/violation"
	violationhandler "aegis/internal/violation/handler"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer, err := capability.New(cfg.SigningKeyBytes(), cfg.TokenValidity, cfg.TokenIssuer)
	if err != nil {
		return err
	}

	shared := metrics.New()

	// Storage: Postgres when configured, in-memory otherwise.
	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	var (
		ledgerStore    ledger.Store
		subjectStore   subject.Store
		requesterStore requester.Store
	)
	healthChecks := map[string]httptransport.HealthChecker{}
	if db != nil {
		defer db.Close()
		lps := ledger.NewPostgresStore(db)
		sps := subject.NewPostgresStore(db)
		rps := requester.NewPostgresStore(db)
		for _, migrate := range []func(context.Context) error{lps.Migrate, sps.Migrate, rps.Migrate} {
			if err := migrate(ctx); err != nil {
				return err
			}
		}
		ledgerStore, subjectStore, requesterStore = lps, sps, rps
		healthChecks["postgres"] = pingChecker{db.PingContext}
		log.Info("using postgres storage")
	} else {
		ledgerStore = ledger.NewInMemoryStore()
		subjectStore = subject.NewInMemoryStore()
		requesterStore = requester.NewInMemoryStore()
		log.Warn("no postgres configured, using in-memory storage")
	}

	// Redis: shared rate limiting and API key caching when configured.
	var limitStore ratelimit.Store = ratelimit.NewInMemoryStore()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
		requesterStore = requester.NewCachedStore(requesterStore, redisClient.Client, cfg.APIKeyCacheTTL, log)
		healthChecks["redis"] = redisClient
		log.Info("redis connected")
	}

	// Kafka: mirror every ledger append onto the audit stream.
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		ledgerStore = ledger.NewMirroredStore(ledgerStore, producer, log)
		log.Info("audit stream enabled", "topic", cfg.KafkaTopic)
	}

	auditLedger := ledger.New(ledgerStore)
	subjects := subject.NewService(subjectStore, issuer, log).WithMetrics(shared)
	requesters := requester.NewService(requesterStore, log).WithMetrics(shared)
	enforcement := gate.New(issuer, auditLedger, log, gatemetrics.New())
	violations := violation.NewService(issuer, auditLedger, log).WithMetrics(shared)
	reports := transparency.NewService(auditLedger, requesters, subjects, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Subjects:     subjecthandler.New(subjects, log),
		Requesters:   requesterhandler.New(requesters, log),
		Gate:         gatehandler.New(enforcement, requesters, log),
		Violations:   violationhandler.New(violations, requesters, log),
		Transparency: transparencyhandler.New(reports, log),
		Health:       httptransport.NewHealthHandler(healthChecks),
		Auth:         requesters,
		RateLimit:    limitStore,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting aegis registry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// pingChecker adapts a ping func to the health check interface.
type pingChecker struct {
	ping func(context.Context) error
}

func (p pingChecker) Health(ctx context.Context) error { return p.ping(ctx) }
