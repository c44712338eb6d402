package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tokenchain/internal/api/http"
	"github.com/spec-kit/tokenchain/internal/auth"
	"github.com/spec-kit/tokenchain/internal/config"
	"github.com/spec-kit/tokenchain/internal/observability"
	"github.com/spec-kit/tokenchain/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Credential.Identifier == "" || cfg.Credential.Secret == "" {
		logger.Fatal("UBI_IDENTIFIER and UBI_SECRET are required to seed the stub account")
	}

	hash, err := auth.HashSecret(cfg.Credential.Secret, 0)
	if err != nil {
		logger.Fatal("failed to hash stub secret", zap.Error(err))
	}
	failAt, err := cfg.Stub.FailAt()
	if err != nil {
		logger.Fatal("invalid stub configuration", zap.Error(err))
	}

	stub := service.NewStubService(service.StubDependencies{
		Account:       service.StubAccount{Identifier: cfg.Credential.Identifier, SecretHash: hash},
		AppID:         cfg.Endpoints.AppID,
		SigningSecret: cfg.Stub.SigningSecret,
		TokenTTL:      time.Hour,
		FailAt:        failAt,
	})

	app := httptransport.NewStubApp(httptransport.StubAppConfig{
		Name:    cfg.App.Name + "-stub",
		Version: cfg.App.Version,
		Timeout: cfg.App.RequestTimeout(),
		Stub:    stub,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	})

	go func() {
		if err := app.Listen(cfg.Stub.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("stub listening", zap.String("addr", cfg.Stub.Addr()), zap.Any("fail_at", failAt))

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
