package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/croustipeze/cookbook/internal/api"
	"github.com/croustipeze/cookbook/internal/cache"
	"github.com/croustipeze/cookbook/internal/config"
	"github.com/croustipeze/cookbook/internal/cookbook"
	"github.com/croustipeze/cookbook/internal/logger"
	"github.com/croustipeze/cookbook/internal/metrics"
	"github.com/croustipeze/cookbook/internal/recipe"
	"github.com/croustipeze/cookbook/internal/sentry"
	"github.com/croustipeze/cookbook/internal/services/catalog"
	"github.com/croustipeze/cookbook/internal/services/geolocation"
	"github.com/croustipeze/cookbook/internal/services/vision"
	"github.com/croustipeze/cookbook/internal/telemetry"
	"github.com/croustipeze/cookbook/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/riandyrn/otelchi"
	otelchimetric "github.com/riandyrn/otelchi/metric"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

func main() {
	defer sentry.Recover()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize telemetry
	if cfg.OtelExporterOTLPEndpoint != "" {
		shutdown, err := telemetry.InitTelemetry(ctx, cfg.ServiceName, cfg.ServiceVersion, cfg.Env, cfg.OtelExporterOTLPEndpoint, nil)
		if err != nil {
			slog.Warn("Failed to init telemetry", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Initialize Sentry
	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	} else if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize business metrics
	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	// Initialize logger with OTel support
	slog.SetDefault(logger.New(cfg.Env))

	// Classification cache and task queue share Redis when it is configured
	var store cache.ClassificationStore
	var redisOpt asynq.RedisConnOpt
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		store = cache.NewRedisClassificationStore(redisClient)

		redisOpt, err = worker.ParseRedisURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
	}

	service := cookbook.NewService(
		cfg.Catalog.URL,
		catalog.NewClient(cfg.Catalog.Timeout),
		recipe.NewRepository(),
		vision.NewClassifier(cfg.Classification, store),
		geolocation.NewProvider(cfg.Geolocation),
	)

	// The catalog is loaded once at startup; a failure leaves it empty until the next refresh.
	if _, err := service.LoadRecipes(ctx); err != nil {
		slog.Warn("Initial catalog load failed", "error", err)
	}

	var enqueuer worker.Enqueuer
	if redisOpt != nil {
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()
		enqueuer = asynqClient
	}

	apiServer := api.NewServer(cfg, service, enqueuer)

	// Router
	r := chi.NewRouter()

	r.Use(otelchi.Middleware(cfg.ServiceName,
		otelchi.WithChiRoutes(r),
		otelchi.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	))

	// HTTP metrics
	metricCfg := otelchimetric.NewBaseConfig(cfg.ServiceName, otelchimetric.WithMeterProvider(otel.GetMeterProvider()))
	r.Use(otelchimetric.NewRequestDurationMillis(metricCfg))
	r.Use(otelchimetric.NewRequestInFlight(metricCfg))
	r.Use(otelchimetric.NewResponseSizeBytes(metricCfg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(sentry.HTTPMiddleware)

	apiServer.Routes(r)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting server", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if redisOpt != nil {
		startWorker(g, gctx, cfg, redisOpt, service)
	}

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

// startWorker runs the catalog refresh worker and, when a refresh interval is
// configured, its scheduler until ctx is cancelled.
func startWorker(g *errgroup.Group, ctx context.Context, cfg *config.Config, redisOpt asynq.RedisConnOpt, service *cookbook.Service) {
	workerMetrics, err := worker.NewWorkerMetrics()
	if err != nil {
		slog.Warn("Failed to init worker metrics", "error", err)
	}

	g.Go(func() error {
		srv := worker.NewServer(redisOpt)
		if err := worker.Start(srv, worker.NewCatalogRefresher(service).Handlers(), workerMetrics); err != nil {
			return err
		}
		slog.Info("Worker started")
		<-ctx.Done()
		srv.Shutdown()
		return nil
	})

	g.Go(func() error {
		scheduler, err := worker.NewScheduler(redisOpt, cfg.Catalog.RefreshInterval)
		if err != nil || scheduler == nil {
			return err
		}
		if err := scheduler.Start(); err != nil {
			return err
		}
		slog.Info("Catalog refresh scheduled", "interval", cfg.Catalog.RefreshInterval)
		<-ctx.Done()
		scheduler.Shutdown()
		return nil
	})
}
