package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"proofvault/internal/audit"
	"proofvault/internal/confirmations"
	"proofvault/internal/jwtauth"
	"proofvault/internal/ledger"
	"proofvault/internal/platform/config"
	"proofvault/internal/platform/httpserver"
	"proofvault/internal/platform/logger"
	"proofvault/internal/platform/metrics"
	redisplatform "proofvault/internal/platform/redis"
	"proofvault/internal/proofs"
	"proofvault/internal/proofs/cache"
	"proofvault/internal/registry"
	"proofvault/internal/registry/handler"
	"proofvault/internal/registry/service"
	"proofvault/internal/roles"
	"proofvault/pkg/domain"
)

// main wires dependencies and owns the process lifecycle. Business rules live
// in internal/registry and the per-feature packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registryReg := prometheus.NewRegistry()
	m := metrics.New(registryReg)

	// Persistence: postgres when a DSN is configured, in-process otherwise.
	// The audit store doubles as the in-transaction outbox: the service writes
	// trail rows through the tx-carrying context, so they commit with the
	// mutation.
	var (
		tx    registry.Tx
		trail audit.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if err := ensureSchemas(ctx, db); err != nil {
			return err
		}
		tx, trail = newRegistryPostgresTx(db), audit.NewPostgresStore(db)
		log.Info("using postgres persistence")
	} else {
		tx = registry.NewMemoryTx(registry.Stores{
			Roles:         roles.NewMemoryStore(),
			Proofs:        proofs.NewMemoryStore(),
			Ledger:        ledger.NewMemoryStore(),
			Confirmations: confirmations.NewMemoryStore(),
		})
		trail = audit.NewMemoryStore()
		log.Info("using in-memory persistence")
	}

	redisClient, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	var proofCache *cache.Cache
	if redisClient != nil {
		defer redisClient.Close()
		proofCache = cache.New(redisClient.Client, cfg.CacheTTL)
		log.Info("proof cache enabled", "ttl", cfg.CacheTTL)
	}

	// Fan-out sinks run post-commit behind the worker; the durable trail is
	// already written by then.
	var sinks []audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("kafka event sink enabled", "topic", cfg.KafkaTopic)
	}

	publisher := audit.NewChannelPublisher(1024, log)
	worker := audit.NewWorker(publisher.Events(), log, sinks...)

	svc := service.New(tx, ledger.AcceptAll{}, trail, publisher, proofCache, m, log)
	if err := svc.Bootstrap(ctx, domain.Account(cfg.BootstrapAdmin)); err != nil {
		return err
	}
	log.Info("bootstrap admin granted", "account", cfg.BootstrapAdmin)

	validator := jwtauth.NewService(cfg.JWTSigningKey, "proofvault")

	router := chi.NewRouter()
	handler.New(svc, trail, log, m, validator).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registryReg, promhttp.HandlerOpts{}))

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	group.Go(func() error {
		log.Info("starting proofvault", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func ensureSchemas(ctx context.Context, db *sql.DB) error {
	type schema interface {
		EnsureSchema(ctx context.Context) error
	}
	for _, s := range []schema{
		roles.NewPostgresStore(db),
		proofs.NewPostgresStore(db),
		ledger.NewPostgresStore(db),
		confirmations.NewPostgresStore(db),
		audit.NewPostgresStore(db),
	} {
		if err := s.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	return nil
}
