// cmd/covidvisor/worker.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/o-richard/covidvisor/internal/casestats"
	"github.com/o-richard/covidvisor/internal/common/camunda"
	"github.com/o-richard/covidvisor/internal/common/config"
	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/common/observability"
	"github.com/o-richard/covidvisor/internal/understanding"
	answer "github.com/o-richard/covidvisor/internal/workers/query/answer-case-query"
	understand "github.com/o-richard/covidvisor/internal/workers/query/understand-case-query"
)

func newWorkerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the Zeebe job workers with health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWorkers(cmd.Context())
		},
	}
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func (a *app) runWorkers(parent context.Context) error {
	if err := config.ValidateWorkerMode(a.cfg); err != nil {
		return err
	}
	log := a.log

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(a.cfg.App.Name)
	if err != nil {
		return err
	}
	defer obs.Shutdown(context.Background())

	// --- Inference pipeline (and result cache) ---
	var (
		pipeline *understanding.Pipeline
		rdb      *redis.Client
	)
	err = retryWithBackoff(ctx, func() error {
		var err error
		pipeline, rdb, err = newPipeline(ctx, a.cfg, log)
		return err
	}, 10, 2*time.Second, log, "Pipeline initialization")
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// --- Case statistics store ---
	var (
		store *casestats.Store
		db    *sql.DB
	)
	err = retryWithBackoff(ctx, func() error {
		var err error
		store, db, err = openStore(ctx, a.cfg, log)
		return err
	}, 15, 2*time.Second, log, "Database connection")
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database connected", map[string]interface{}{"driver": a.cfg.Database.Driver})

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(ctx, func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(ctx, camunda.ConfigFrom(a.cfg.Camunda))
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		return err
	}
	defer zeebe.Close()
	log.Info("zeebe client connected", map[string]interface{}{"broker": a.cfg.Camunda.BrokerAddress})

	// --- Workers ---
	understandCfg := config.GetWorkerConfig(a.cfg, understand.TaskType)
	answerCfg := config.GetWorkerConfig(a.cfg, answer.TaskType)

	understandJobs := understand.NewHandler(&understand.Config{
		Timeout:        config.GetDuration(understandCfg.Timeout),
		MaxQueryLength: understand.LoadConfig().MaxQueryLength,
	}, pipeline, obs, log)
	answerJobs := answer.NewHandler(&answer.Config{
		Timeout: config.GetDuration(answerCfg.Timeout),
	}, newEngine(a.cfg, store, log), obs, log)

	workers := []*camunda.Worker{
		camunda.StartWorker(zeebe.GetClient(), understand.TaskType, understandCfg, understandJobs, log),
		camunda.StartWorker(zeebe.GetClient(), answer.TaskType, answerCfg, answerJobs, log),
	}

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr: a.cfg.Metrics.Address,
		Handler: newHealthMux(map[string]readinessCheck{
			"zeebe":    zeebe.HealthCheck,
			"database": db.PingContext,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("health/metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	for _, w := range workers {
		w.Stop()
	}

	log.Info("workers stopped", nil)
	return nil
}
