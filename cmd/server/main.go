// Command server runs the CredGen loan-origination API.
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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"credgen/internal/archive"
	"credgen/internal/conversation"
	"credgen/internal/conversation/handler"
	"credgen/internal/conversation/metrics"
	"credgen/internal/docs"
	"credgen/internal/extraction"
	"credgen/internal/fraud"
	"credgen/internal/intent"
	"credgen/internal/platform/config"
	"credgen/internal/platform/httpserver"
	"credgen/internal/platform/logger"
	"credgen/internal/platform/middleware"
	redisplatform "credgen/internal/platform/redis"
	"credgen/internal/sales"
	"credgen/internal/session"
	"credgen/internal/underwriting"
	"credgen/pkg/platform/audit"
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	// Session store: Redis when configured, in-memory otherwise.
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	var store session.Store
	if redisClient != nil {
		defer redisClient.Close()
		store = session.NewRedisStore(redisClient, cfg.Session.IdleTTL)
		log.Info("session store: redis")
	} else {
		store = session.NewMemoryStore(cfg.Session.IdleTTL)
		log.Info("session store: in-memory")
	}

	// Sanctioned-loan archive: Postgres when configured.
	var archiveStore archive.Store
	if cfg.Postgres.DSN != "" {
		pg, err := archive.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		archiveStore = pg
		log.Info("archive: postgres")
	} else {
		archiveStore = archive.NewMemoryStore()
		log.Info("archive: in-memory")
	}

	// Audit trail: Kafka when brokers are configured.
	var auditPublisher audit.Publisher = audit.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic,
			audit.WithKafkaLogger(log))
		if err != nil {
			return err
		}
		defer kafka.Close()
		auditPublisher = kafka
		log.Info("audit: kafka", "topic", cfg.Kafka.Topic)
	}

	extractor := extraction.New()
	locks := session.NewLocks()
	svc := conversation.New(store, locks, conversation.Engines{
		Resolver:     intent.NewResolver(intent.NewLexicalScorer(), extractor, cfg.Policy.Intent.ConfidenceThreshold),
		Extractor:    extractor,
		Underwriting: underwriting.New(cfg.Policy.Underwriting, underwriting.WithLogger(log)),
		Sales:        sales.New(cfg.Policy.Sales, sales.WithLogger(log)),
		Fraud:        fraud.New(),
		Letters:      docs.NewRenderer(),
	}, cfg.Policy,
		conversation.WithLogger(log),
		conversation.WithArchive(archiveStore),
		conversation.WithAuditPublisher(auditPublisher),
		conversation.WithMetrics(metrics.New()),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger(log))
	handler.New(svc, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Server.Addr, router)
	sweeper := session.NewSweeper(store, locks, cfg.Session.IdleTTL,
		cfg.Session.SweepInterval, session.WithSweeperLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting credgen server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
