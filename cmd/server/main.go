// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the registry packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"mintgate/internal/audit"
	jwttoken "mintgate/internal/jwt_token"
	"mintgate/internal/platform/config"
	"mintgate/internal/platform/httpserver"
	"mintgate/internal/platform/logger"
	platformmetrics "mintgate/internal/platform/metrics"
	platformotel "mintgate/internal/platform/otel"
	platformredis "mintgate/internal/platform/redis"
	"mintgate/internal/registry/handler"
	"mintgate/internal/registry/metadata"
	regmetrics "mintgate/internal/registry/metrics"
	"mintgate/internal/registry/models"
	"mintgate/internal/registry/ports"
	"mintgate/internal/registry/service"
	"mintgate/internal/registry/store"
	rolestore "mintgate/internal/registry/store/roles"
	settingsstore "mintgate/internal/registry/store/settings"
	tokenstore "mintgate/internal/registry/store/tokens"
	"mintgate/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := platformotel.Setup(ctx, "mintgate")
	if err != nil {
		log.Error("otel setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		tokens   ports.TokenStore
		roles    ports.RoleStore
		settings ports.SettingsStore
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres failed", "error", err)
			os.Exit(1)
		}
		if err := store.EnsureSchema(ctx, db); err != nil {
			log.Error("apply schema failed", "error", err)
			os.Exit(1)
		}
		tokens = tokenstore.NewPostgres(db)
		roles = rolestore.NewPostgres(db)
		settings = settingsstore.NewPostgres(db)
	} else {
		tokens = tokenstore.NewInMemoryStore()
		roles = rolestore.NewInMemoryStore()
		settings = settingsstore.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var auditPublisher ports.AuditPublisher
	var kafkaPublisher *audit.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err = audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		auditPublisher = kafkaPublisher
	} else {
		auditPublisher = audit.NewPublisher(audit.NewInMemoryStore())
	}

	regMetrics := regmetrics.New()
	httpMetrics := platformmetrics.New()

	resolver, err := metadata.New(tokens, settings,
		metadata.WithCache(redisClient),
		metadata.WithLogger(log),
	)
	if err != nil {
		log.Error("resolver setup failed", "error", err)
		os.Exit(1)
	}

	registry, err := service.New(tokens, roles, settings,
		models.Collection{Name: cfg.CollectionName, Symbol: cfg.CollectionSymbol},
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(regMetrics),
		service.WithCacheInvalidator(resolver),
	)
	if err != nil {
		log.Error("service setup failed", "error", err)
		os.Exit(1)
	}

	if cfg.BootstrapPrincipal != "" {
		if err := registry.Bootstrap(ctx, domain.Principal(cfg.BootstrapPrincipal)); err != nil {
			log.Error("bootstrap failed", "error", err)
			os.Exit(1)
		}
		log.Info("bootstrap principal seeded", "principal", cfg.BootstrapPrincipal)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "mintgate", "mintgate-api")

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	handler.New(registry, resolver, log, httpMetrics, jwtService).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting mintgate", "addr", cfg.Addr)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
