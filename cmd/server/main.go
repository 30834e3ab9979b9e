package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/rfaulk/flicklist/internal/config"
	"github.com/rfaulk/flicklist/internal/database"
	"github.com/rfaulk/flicklist/internal/handlers"
	"github.com/rfaulk/flicklist/internal/logger"
	"github.com/rfaulk/flicklist/internal/middleware"
	"github.com/rfaulk/flicklist/internal/queue"
	"github.com/rfaulk/flicklist/internal/scheduler"
	"github.com/rfaulk/flicklist/internal/services/ai"
	"github.com/rfaulk/flicklist/internal/telemetry"
	"github.com/rfaulk/flicklist/internal/workers"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("queue_driver", cfg.QueueDriver),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing, optional
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "flicklist-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		zapLogger.Fatal("failed_to_open_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database", zap.Error(err))
		}
	}()
	zapLogger.Info("database_ready", zap.String("path", cfg.DatabasePath))

	jobQueue, err := openJobQueue(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_job_queue", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_job_queue", zap.Error(err))
		}
	}()

	taskRepo := database.NewTaskRepository(db)
	prefsRepo := database.NewPreferencesRepository(db)

	taskHandler := handlers.NewTaskHandler(taskRepo, jobQueue, zapLogger)
	prefsHandler := handlers.NewPreferencesHandler(prefsRepo)
	healthChecker := handlers.NewHealthChecker(db, jobQueue)
	openAPIHandler := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi.yaml"))

	r := mux.NewRouter()

	// Middleware, outermost first
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("flicklist-api"))
	}
	r.Use(middleware.CORSFromEnv(cfg.ClientOrigins))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("invalid_rate_limit", zap.String("rate", cfg.RateLimit), zap.Error(err))
	}

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	openAPIHandler.RegisterRoutes(r)

	tasksRouter := r.PathPrefix("/api/tasks").Subrouter()
	tasksRouter.Use(rateLimitMW)
	taskHandler.RegisterRoutes(tasksRouter)

	prefsRouter := r.PathPrefix("/api/preferences").Subrouter()
	prefsRouter.Use(rateLimitMW)
	prefsHandler.RegisterRoutes(prefsRouter)

	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// With the in-process queue driver there is no separate worker binary, so
	// enrichment, alert scheduling, and task reaping all run inside the server.
	if cfg.QueueDriver == config.QueueDriverMemory {
		if err := startInProcessWorker(workerCtx, cfg, db, jobQueue, zapLogger, debugMode); err != nil {
			zapLogger.Fatal("failed_to_start_in_process_worker", zap.Error(err))
		}
	}

	go func() {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	workerCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// openJobQueue builds the queue named by QUEUE_DRIVER. AMQP connections are
// retried with exponential backoff to ride out broker startup delays.
func openJobQueue(cfg *config.Config, zapLogger *zap.Logger) (queue.JobQueue, error) {
	if cfg.QueueDriver == config.QueueDriverMemory {
		zapLogger.Info("using_in_process_job_queue", zap.Int("buffer", cfg.QueueBuffer))
		return queue.NewMemoryQueue(cfg.QueueBuffer), nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 2 * time.Minute

	jobQueue, err := backoff.RetryWithData(func() (queue.JobQueue, error) {
		q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
		if err != nil {
			zapLogger.Warn("rabbitmq_connect_failed_retrying", zap.Error(err))
			return nil, err
		}
		return q, nil
	}, b)
	if err != nil {
		return nil, err
	}
	zapLogger.Info("connected_to_rabbitmq")
	return jobQueue, nil
}

// startInProcessWorker wires the enrichment pipeline into the server process:
// an AI provider, the alert scheduler, a consume loop, and the expired-task
// reaper.
func startInProcessWorker(ctx context.Context, cfg *config.Config, db *database.DB, jobQueue queue.JobQueue, zapLogger *zap.Logger, debugMode bool) error {
	aiProvider, err := ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
	if err != nil {
		return err
	}

	taskRepo := database.NewTaskRepository(db)
	prefsRepo := database.NewPreferencesRepository(db)
	alerts := scheduler.New(scheduler.NewLogNotifier(zapLogger), zapLogger)
	enricher := workers.NewEnricher(aiProvider, taskRepo, prefsRepo, alerts, jobQueue, zapLogger)

	msgChan, errChan, err := jobQueue.Consume(ctx, 1)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					return
				}
				if err := enricher.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", msg.Job().ID.String()),
					)
				}
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	reaper := workers.NewReaper(taskRepo, alerts, workers.DefaultReapInterval, zapLogger)
	go func() {
		if err := reaper.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("reaper_stopped_with_error", zap.Error(err))
		}
	}()

	zapLogger.Info("in_process_worker_started")
	return nil
}
