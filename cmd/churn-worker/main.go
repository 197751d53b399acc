// cmd/churn-worker/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"churn-workers/internal/churn"
	awsclient "churn-workers/internal/common/aws"
	"churn-workers/internal/common/camunda"
	"churn-workers/internal/common/config"
	"churn-workers/internal/common/database"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/observability"
	"churn-workers/internal/repository"
	"churn-workers/internal/server"

	icp "churn-workers/internal/workers/churn/index-churn-prediction"
	pc "churn-workers/internal/workers/churn/predict-churn"
	sra "churn-workers/internal/workers/churn/send-retention-alert"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	log := logger.FromConfig(cfg.Logging)
	defer func() {
		if s, ok := log.(interface{ Sync() error }); ok {
			_ = s.Sync()
		}
	}()

	log.Info("starting churn worker", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("observability disabled", map[string]interface{}{"error": err.Error()})
	}

	// --- Model ---
	model, err := churn.LoadModel(cfg.Model.ArtifactPath)
	if err != nil {
		fatal(log, "model load failed", err)
	}
	engine := churn.NewEngine(model)
	log.Info("model loaded", map[string]interface{}{
		"path":     cfg.Model.ArtifactPath,
		"version":  engine.ModelVersion(),
		"features": len(model.FeatureNames()),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = camunda.RetryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		fatal(log, "postgres failed after retries", err)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		fatal(log, "schema migration failed", err)
	}

	// --- Redis ---
	var cache *database.RedisClient
	err = camunda.RetryWithBackoff(ctx, func() error {
		var err error
		cache, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return cache.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		fatal(log, "redis failed after retries", err)
	}
	defer cache.Close()

	cacheTTL := time.Duration(cfg.Model.CacheTTL) * time.Second
	clients := repository.NewClientRepository(pg.DB, cache, cacheTTL, log)
	predictions := repository.NewPredictionRepository(pg.DB, cache, cacheTTL, log)

	// --- Workers ---
	var registry *camunda.Registry
	if anyWorkerEnabled(cfg) {
		var zeebeClient zbc.Client
		err = camunda.RetryWithBackoff(ctx, func() error {
			var err error
			zeebeClient, err = camunda.NewClient(ctx, cfg.Camunda)
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			fatal(log, "zeebe client failed after retries", err)
		}
		defer zeebeClient.Close()

		registry = camunda.NewRegistry(zeebeClient, log)
		registerWorkers(ctx, cfg, registry, engine, clients, predictions, obs, log)
	}

	// --- HTTP API ---
	api := server.New(engine, log,
		server.WithObservability(obs),
		server.WithReadinessCheck("postgres", pg.Ping),
		server.WithReadinessCheck("redis", cache.Ping),
	)
	httpServer := api.HTTPServer(cfg.Server)
	go func() {
		log.Info("prediction API listening", map[string]interface{}{"address": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "prediction API failed", err)
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping prediction API", map[string]interface{}{"error": err.Error()})
	}
	if registry != nil {
		registry.Close()
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping meter provider", map[string]interface{}{"error": err.Error()})
	}

	log.Info("churn worker stopped", nil)
}

func registerWorkers(
	ctx context.Context,
	cfg *config.Config,
	registry *camunda.Registry,
	engine *churn.Engine,
	clients *repository.ClientRepository,
	predictions *repository.PredictionRepository,
	obs *observability.Observability,
	log logger.Logger,
) {
	// Predict Churn
	if wcfg := config.GetWorkerConfig(cfg, config.WorkerPredictChurn); wcfg.Enabled {
		pcCfg := pc.LoadConfig()
		pcCfg.Timeout = config.GetDuration(wcfg.Timeout)
		handler := pc.NewHandler(pcCfg, engine, clients, predictions, obs, log)
		registry.Start(pc.TaskType, wcfg, handler.Handle)
	}

	// Index Churn Prediction
	if wcfg := config.GetWorkerConfig(cfg, config.WorkerIndexPrediction); wcfg.Enabled {
		var es *database.ElasticsearchClient
		err := camunda.RetryWithBackoff(ctx, func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			fatal(log, "elasticsearch failed after retries", err)
		}

		icpCfg := icp.LoadConfig(cfg.Database.Elasticsearch.PredictionIndex)
		icpCfg.Timeout = config.GetDuration(wcfg.Timeout)
		handler := icp.NewHandler(icpCfg, es, log)
		registry.Start(icp.TaskType, wcfg, handler.Handle)
	}

	// Send Retention Alert
	if wcfg := config.GetWorkerConfig(cfg, config.WorkerRetentionAlert); wcfg.Enabled {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			fatal(log, "aws config failed", err)
		}

		sraCfg := sra.LoadConfig(cfg.Notifications)
		sraCfg.Timeout = config.GetDuration(wcfg.Timeout)
		handler := sra.NewHandler(sraCfg,
			awsclient.NewSESClient(awsCfg),
			awsclient.NewSNSClient(awsCfg),
			predictions, log)
		registry.Start(sra.TaskType, wcfg, handler.Handle)
	}

	log.Info("workers registered", map[string]interface{}{"taskTypes": registry.TaskTypes()})
}

func anyWorkerEnabled(cfg *config.Config) bool {
	for _, name := range []string{config.WorkerPredictChurn, config.WorkerIndexPrediction, config.WorkerRetentionAlert} {
		if config.IsWorkerEnabled(cfg, name) {
			return true
		}
	}
	return false
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err.Error()})
	if s, ok := log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	os.Exit(1)
}
