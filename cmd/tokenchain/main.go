package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tokenchain/internal/api/http"
	"github.com/spec-kit/tokenchain/internal/auth"
	"github.com/spec-kit/tokenchain/internal/client"
	"github.com/spec-kit/tokenchain/internal/config"
	"github.com/spec-kit/tokenchain/internal/domain"
	"github.com/spec-kit/tokenchain/internal/events"
	"github.com/spec-kit/tokenchain/internal/observability"
	"github.com/spec-kit/tokenchain/internal/persistence"
	"github.com/spec-kit/tokenchain/internal/repository"
	"github.com/spec-kit/tokenchain/internal/service"
	"github.com/spec-kit/tokenchain/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Warn("run ledger unavailable; continuing without it", zap.Error(err))
	}
	defer pg.Close()

	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Warn("failed to run migrations", zap.Error(err))
			}
		}
		worker.StartLedgerWorker(dispatcher, repository.NewRunRepository(pool), logger)
	}

	files := persistence.NewFileStore(cfg.App.OutputDir, logger)
	sinks := persistence.MultiSink{files}
	if rdb := persistence.NewRedis(ctx, cfg.Redis, logger); rdb != nil {
		defer rdb.Close()
		sinks = append(sinks, rdb)
	}

	var opts []client.Option
	if cfg.App.DryRun {
		app, err := newDryRunStub(cfg, logger)
		if err != nil {
			logger.Error("failed to build dry run stub", zap.Error(err))
			return 1
		}
		logger.Warn("dry run: upstream calls are served by the in-process stub")
		opts = append(opts, client.WithTransport(httptransport.AppTransport{App: app}))
	}

	svc := service.NewTokenChainService(service.TokenChainDependencies{
		Client:     client.New(cfg.Endpoints, cfg.App.RequestTimeout(), opts...),
		Sink:       sinks,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	result, err := svc.Run(ctx, *cfg)
	snap := metrics.Snapshot()
	if err != nil {
		fields := []zap.Field{zap.Error(err), zap.Any("requests", snap.Requests), zap.Any("errors", snap.Errors)}
		if result != nil {
			fields = append(fields, zap.String("run_id", result.RunID), zap.String("state", string(result.State)))
		}
		logger.Error("token chain aborted", fields...)
		return 1
	}

	logger.Info("run finished",
		zap.String("run_id", result.RunID),
		zap.String("state", string(result.State)),
		zap.Any("requests", snap.Requests),
	)
	logger.Info("check this file for the Live API access token", zap.String("file", files.Path(domain.StageLive)))
	logger.Info("check this file for the Core API access token", zap.String("file", files.Path(domain.StageCore)))
	return 0
}

func newDryRunStub(cfg *config.Config, logger *zap.Logger) (*fiber.App, error) {
	hash, err := auth.HashSecret(cfg.Credential.Secret, 0)
	if err != nil {
		return nil, err
	}
	failAt, err := cfg.Stub.FailAt()
	if err != nil {
		return nil, err
	}

	stub := service.NewStubService(service.StubDependencies{
		Account:       service.StubAccount{Identifier: cfg.Credential.Identifier, SecretHash: hash},
		AppID:         cfg.Endpoints.AppID,
		SigningSecret: cfg.Stub.SigningSecret,
		TokenTTL:      time.Hour,
		FailAt:        failAt,
	})
	return httptransport.NewStubApp(httptransport.StubAppConfig{
		Name:    cfg.App.Name + "-stub",
		Version: cfg.App.Version,
		Stub:    stub,
		Logger:  logger.Named("stub"),
	}), nil
}
