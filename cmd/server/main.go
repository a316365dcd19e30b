package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	contentapp "github.com/rainbow/backend/internal/application/content"
	messagingapp "github.com/rainbow/backend/internal/application/messaging"
	socialapp "github.com/rainbow/backend/internal/application/social"
	"github.com/rainbow/backend/internal/application/workflow"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/task"
	"github.com/rainbow/backend/internal/infrastructure/auth"
	"github.com/rainbow/backend/internal/infrastructure/cache"
	"github.com/rainbow/backend/internal/infrastructure/config"
	"github.com/rainbow/backend/internal/infrastructure/event"
	"github.com/rainbow/backend/internal/infrastructure/logger"
	"github.com/rainbow/backend/internal/infrastructure/notification"
	"github.com/rainbow/backend/internal/infrastructure/persistence"
	"github.com/rainbow/backend/internal/infrastructure/scheduler"
	"github.com/rainbow/backend/internal/infrastructure/telemetry"
	"github.com/rainbow/backend/internal/interfaces/http/handler"
	"github.com/rainbow/backend/internal/interfaces/http/middleware"
	"github.com/rainbow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Log export to the OTLP collector, bridged into zap so the same entries
	// reach stdout and the collector
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	defer shutdownProvider(log, "logger provider", loggerProvider.Shutdown)

	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore,
			zap.AddCaller(),
			zap.AddStacktrace(zap.ErrorLevel),
		)
	}

	log.Info("Starting Rainbow Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdownProvider(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer shutdownProvider(log, "meter provider", meterProvider.Shutdown)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Profiler.Enabled,
		ServerAddress:       cfg.Profiler.ServerAddress,
		ApplicationName:     cfg.Profiler.ApplicationName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:  true,
			DBSystem: "postgresql",
		}, log)
		if err := dbTracing.Register(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	followRepo := persistence.NewGormFollowRepository(db.DB)
	connectionRepo := persistence.NewGormConnectionRepository(db.DB)
	requestRepo := persistence.NewGormConnectionRequestRepository(db.DB)
	storyRepo := persistence.NewGormStoryRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	taskRepo := persistence.NewGormTaskRepository(db.DB)

	// Event bus and handler idempotency
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		idempotencyStore = redisStore
		log.Info("Redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	}

	// Task engine and workflows
	clock := shared.SystemClock{}
	taskEngine := scheduler.NewEngine(taskRepo, clock, scheduler.Config{
		PollInterval:     cfg.Scheduler.PollInterval,
		BatchSize:        cfg.Scheduler.BatchSize,
		WorkerCount:      cfg.Scheduler.WorkerCount,
		ClaimLease:       cfg.Scheduler.ClaimLease,
		CleanupEnabled:   cfg.Scheduler.CleanupEnabled,
		CleanupRetention: cfg.Scheduler.CleanupRetention,
		CleanupInterval:  cfg.Scheduler.CleanupInterval,
	}, log)

	sender := notification.NewLogSender(log)
	taskEngine.Register(workflow.NewReminderWorkflow(requestRepo, userRepo, sender, log))
	taskEngine.Register(workflow.NewStoryExpiryWorkflow(storyRepo, log))
	taskEngine.Register(workflow.NewDailyDigestWorkflow(messageRepo, sender, log))

	triggers := workflow.NewTaskTriggers(taskEngine, clock, log)
	eventBus.Subscribe(event.NewIdempotentHandler(triggers, idempotencyStore, log))

	if cfg.Scheduler.Enabled {
		if err := taskEngine.Start(ctx); err != nil {
			log.Fatal("Failed to start task engine", zap.Error(err))
		}
		defer func() {
			if err := taskEngine.Stop(context.Background()); err != nil {
				log.Error("Error stopping task engine", zap.Error(err))
			}
		}()
		log.Info("Task engine started",
			zap.Duration("poll_interval", cfg.Scheduler.PollInterval),
			zap.Int("worker_count", cfg.Scheduler.WorkerCount),
		)

		if cfg.Digest.Enabled {
			schedule, err := task.NewCronSchedule(cfg.Digest.Hour, cfg.Digest.Minute, cfg.Digest.Timezone)
			if err != nil {
				log.Fatal("Invalid digest schedule", zap.Error(err))
			}
			if _, err := taskEngine.EnsureRecurring(ctx, workflow.TaskKindDailyDigest, schedule, workflow.DigestDedupeKey); err != nil {
				log.Fatal("Failed to arm daily digest", zap.Error(err))
			}
			log.Info("Daily digest armed",
				zap.Int("hour", cfg.Digest.Hour),
				zap.Int("minute", cfg.Digest.Minute),
				zap.String("timezone", cfg.Digest.Timezone),
			)
		}
	}

	// Application metrics, including the scheduler backlog gauge
	if meterProvider.IsEnabled() {
		appMetrics, err := telemetry.NewAppMetrics(telemetry.AppMetricsConfig{
			Meter:           meterProvider.Meter("rainbow-backend"),
			Logger:          log,
			CollectInterval: 30 * time.Second,
			BacklogProvider: taskBacklogAdapter{repo: taskRepo},
		})
		if err != nil {
			log.Warn("Failed to initialize application metrics", zap.Error(err))
		} else {
			defer appMetrics.Close()
		}
	}

	// Application services
	userService := socialapp.NewUserService(userRepo)
	connectionService := socialapp.NewConnectionService(userRepo, followRepo, connectionRepo, requestRepo, eventBus, clock, log)
	storyService := contentapp.NewStoryService(storyRepo, followRepo, connectionRepo, eventBus, clock, log)
	messageService := messagingapp.NewMessageService(messageRepo, connectionRepo, log)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName}))
	}

	verifier := auth.NewVerifier(cfg.JWT)
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Verifier: verifier,
		SkipPaths: []string{
			"/healthz",
			"/api/v1/users",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	systemHandler := handler.NewSystemHandler(db.DB)
	engine.GET("/healthz", systemHandler.Healthz)

	router.NewRouter(engine).
		Register(handler.NewUserHandler(userService)).
		Register(handler.NewConnectionHandler(connectionService)).
		Register(handler.NewStoryHandler(storyService)).
		Register(handler.NewMessageHandler(messageService)).
		Register(systemHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// taskBacklogAdapter exposes the task repository's per-state counts with
// string keys for the metrics collector
type taskBacklogAdapter struct {
	repo task.Repository
}

func (a taskBacklogAdapter) CountTasksByState(ctx context.Context) (map[string]int64, error) {
	counts, err := a.repo.CountByState(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(counts))
	for state, n := range counts {
		byName[string(state)] = n
	}
	return byName, nil
}

func shutdownProvider(log *zap.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
