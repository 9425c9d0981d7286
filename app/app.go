package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	bettingservice "github.com/tipliga-club/tipliga-backend/app/modules/betting/application"
	bettinghandlers "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/handlers"
	bettingqueue "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/queue"
	bettingdb "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/repositories"
	bettingrouter "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/router"
	evalservice "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/application"
	evalhandlers "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/handlers"
	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	evalrouter "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/router"
	leaderboardservice "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/application"
	leaderboardhandlers "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/handlers"
	leaderboarddb "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/repositories"
	leaderboardrouter "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/router"
	leaderboardsubscribers "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/subscribers"
	sharedmw "github.com/tipliga-club/tipliga-backend/app/shared/middleware"
	"github.com/tipliga-club/tipliga-backend/app/shared/observability"
	"github.com/tipliga-club/tipliga-backend/config"
	"github.com/tipliga-club/tipliga-backend/eventbus"
)

// App wires the modules together: database, event bus, job queue, and the
// HTTP API.
type App struct {
	Config *config.Config
	Router chi.Router

	logger     *slog.Logger
	db         *bun.DB
	eventBus   eventbus.EventBus
	subscriber message.Subscriber
	queue      bettingqueue.QueueService
	registry   *prometheus.Registry
}

// NewApp builds the full application from configuration. It connects to
// Postgres and (when configured) NATS, constructs the module services, and
// assembles the HTTP router.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var bus eventbus.EventBus = eventbus.NoOpBus{}
	if cfg.NATS.URL != "" {
		natsBus, err := eventbus.New(cfg.NATS.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		bus = natsBus
	}

	tracer := otel.Tracer("tipliga-backend")
	registry := prometheus.NewRegistry()
	metrics := observability.NewPrometheusMetrics(registry)

	queue, err := bettingqueue.NewService(ctx, logger, cfg.Postgres.DSN, bus)
	if err != nil {
		return nil, fmt.Errorf("failed to create betting queue: %w", err)
	}

	evalRepo := &evaldb.EvalDBImpl{DB: db}
	evalSvc := evalservice.NewEvaluationService(evalRepo, bus, logger, metrics, tracer, db)

	betRepo := &bettingdb.BettingDBImpl{DB: db}
	betSvc := bettingservice.NewBettingService(betRepo, queue, logger, tracer, db, nil)

	lbRepo := &leaderboarddb.LeaderboardDBImpl{DB: db}
	lbSvc := leaderboardservice.NewLeaderboardService(lbRepo, logger, tracer, db)

	var subscriber message.Subscriber
	if cfg.NATS.URL != "" {
		sub, err := eventbus.NewSubscriber(cfg.NATS.URL, "leaderboard", logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create leaderboard subscriber: %w", err)
		}
		if err := leaderboardsubscribers.NewEvaluationSubscriber(sub, lbSvc, logger).Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start leaderboard subscriber: %w", err)
		}
		subscriber = sub
	}

	limiter := sharedmw.NewClientRateLimiter(rate.Limit(5), 10)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(sharedmw.CorrelationID)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	api := chi.NewRouter()
	evalrouter.Mount(api, evalhandlers.NewHandlers(evalSvc, logger), limiter)
	bettingrouter.Mount(api, bettinghandlers.NewHandlers(betSvc, logger))
	leaderboardrouter.Mount(api, leaderboardhandlers.NewHandlers(lbSvc, logger))
	r.Mount("/api", api)

	return &App{
		Config:     cfg,
		Router:     r,
		logger:     logger,
		db:         db,
		eventBus:   bus,
		subscriber: subscriber,
		queue:      queue,
		registry:   registry,
	}, nil
}

// Run starts the queue workers, the metrics endpoint, and the API server,
// and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.queue.Start(ctx); err != nil {
		return fmt.Errorf("failed to start betting queue: %w", err)
	}

	if addr := a.Config.Observability.MetricsAddress; addr != "" {
		go observability.ServeMetrics(ctx, addr, a.registry, a.logger)
	}

	server := &http.Server{
		Addr:              a.Config.HTTP.Address,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("API server listening", slog.String("address", a.Config.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("API server shutdown failed", slog.Any("error", err))
	}
	return nil
}

// Close releases all resources in reverse dependency order.
func (a *App) Close(ctx context.Context) {
	if err := a.queue.Stop(ctx); err != nil {
		a.logger.Error("Failed to stop betting queue", slog.Any("error", err))
	}
	if a.subscriber != nil {
		if err := a.subscriber.Close(); err != nil {
			a.logger.Error("Failed to close subscriber", slog.Any("error", err))
		}
	}
	if err := a.eventBus.Close(); err != nil {
		a.logger.Error("Failed to close event bus", slog.Any("error", err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database", slog.Any("error", err))
	}
}
