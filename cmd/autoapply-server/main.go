// cmd/autoapply-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MadhavBytes/AI-job-hunter/internal/adapters/auth"
	"github.com/MadhavBytes/AI-job-hunter/internal/adapters/optimizer"
	"github.com/MadhavBytes/AI-job-hunter/internal/adapters/submitter"
	"github.com/MadhavBytes/AI-job-hunter/internal/api"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/config"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/database"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/observability"
	"github.com/MadhavBytes/AI-job-hunter/internal/credentials"
	"github.com/MadhavBytes/AI-job-hunter/internal/jobs"
	"github.com/MadhavBytes/AI-job-hunter/internal/ledger"
	"github.com/MadhavBytes/AI-job-hunter/internal/notify"
	"github.com/MadhavBytes/AI-job-hunter/internal/orchestrator"
	"github.com/MadhavBytes/AI-job-hunter/internal/ratelimit"
	"github.com/MadhavBytes/AI-job-hunter/internal/scorer"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting auto-apply server...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Application Ledger ---
	appLedger := ledger.NewPostgresLedger(pg.DB)
	if err := appLedger.Migrate(ctx); err != nil {
		zapLog.Fatal("ledger migration failed", zap.Error(err))
	}

	// --- Notifications ---
	var dispatcher notify.Dispatcher
	dispatcher, err = notify.NewAWSDispatcher(ctx, notify.AWSConfig{
		Region:       cfg.Notifications.AWS.Region,
		FromEmail:    cfg.Notifications.Email.FromEmail,
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
	}, log)
	if err != nil {
		zapLog.Warn("AWS dispatcher unavailable, falling back to log-only notifications", zap.Error(err))
		dispatcher = notify.NewLogDispatcher(log)
	}

	// --- Credential Validation ---
	authenticator := auth.NewHTTPAuthenticator(auth.Config{
		BaseURL: cfg.Adapters.Auth.BaseURL,
		Timeout: config.GetDuration(cfg.Adapters.Auth.Timeout),
	})
	tokenStore := credentials.NewRedisTokenStore(redis.Client)
	validator := credentials.NewValidator(authenticator, tokenStore, notify.NewBestEffort(dispatcher, log), log)

	// --- External Adapters ---
	resumeOptimizer := optimizer.NewOllamaOptimizer(optimizer.Config{
		BaseURL:     cfg.Adapters.Optimizer.BaseURL,
		Model:       cfg.Adapters.Optimizer.Model,
		Temperature: cfg.Adapters.Optimizer.Temperature,
		Timeout:     config.GetDuration(cfg.Adapters.Optimizer.Timeout),
	}, log)

	appSubmitter := submitter.NewHTTPSubmitter(submitter.Config{
		BaseURL: cfg.Adapters.Submitter.BaseURL,
		APIKey:  cfg.Adapters.Submitter.APIKey,
		Timeout: config.GetDuration(cfg.Adapters.Submitter.Timeout),
	}, log)

	jobProvider := jobs.NewHTTPProvider(jobs.Config{
		BaseURL: cfg.Adapters.Jobs.BaseURL,
		Timeout: config.GetDuration(cfg.Adapters.Jobs.Timeout),
	}, log)

	limiter := ratelimit.NewTokenBucket(cfg.Limiter.Capacity, cfg.Limiter.RefillPerSecond)

	// --- Orchestration Engine ---
	engine := orchestrator.NewEngine(orchestrator.Config{
		WorkerCount:       cfg.Orchestrator.WorkerCount,
		MaxSubmitAttempts: cfg.Orchestrator.MaxSubmitAttempts,
		MaxRetryWait:      config.GetDuration(cfg.Orchestrator.MaxRetryWait),
	}, orchestrator.Deps{
		Scorer:     scorer.NewKeywordScorer(),
		Validator:  validator,
		Optimizer:  resumeOptimizer,
		Submitter:  appSubmitter,
		Limiter:    limiter,
		Ledger:     appLedger,
		Dispatcher: dispatcher,
		Provider:   jobProvider,
		Obs:        obs,
		Logger:     log,
	})

	// --- HTTP Server ---
	apiServer := api.NewServer(api.Deps{
		Engine:      engine,
		Credentials: validator,
		Scorer:      scorer.NewKeywordScorer(),
		Stats:       appLedger,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      apiServer,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining in-flight requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Auto-apply server stopped gracefully")
}
