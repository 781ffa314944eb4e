package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/catalog"
	"github.com/flexonb/mindhack/internal/chat"
	"github.com/flexonb/mindhack/internal/config"
	"github.com/flexonb/mindhack/internal/evaluation"
	"github.com/flexonb/mindhack/internal/httpapi"
	"github.com/flexonb/mindhack/internal/llm"
	"github.com/flexonb/mindhack/internal/logging"
	"github.com/flexonb/mindhack/internal/memory"
	"github.com/flexonb/mindhack/internal/observability"
	"github.com/flexonb/mindhack/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket API",
	RunE:  runServe,
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	files, _ := cmd.Flags().GetStringSlice("env-file")
	if err := config.LoadDotEnv(files...); err != nil {
		return config.Config{}, err
	}
	return config.Load()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return cat, nil
}

func gatewayConfig(cfg config.Config) llm.GatewayConfig {
	gc := llm.DefaultGatewayConfig()
	gc.MaxRetries = cfg.LLMMaxRetries
	gc.BaseDelay = cfg.LLMRetryBaseDelay
	gc.MaxDelay = cfg.LLMRetryMaxDelay
	gc.Timeout = cfg.LLMRequestTimeout
	return gc
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics := observability.NewMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(ctx, llm.Config{
		Mode:    cfg.LLMProvider,
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	})
	if err != nil {
		return fmt.Errorf("llm provider init failed: %w", err)
	}
	gateway := llm.NewGateway(provider, gatewayConfig(cfg), llm.WithLogger(logger), llm.WithMetrics(metrics))
	logger.Info("llm provider selected", zap.String("provider", gateway.ProviderName()))

	evaluator, err := evaluation.New(cfg.EvaluatorMode, gateway, logger, metrics)
	if err != nil {
		return fmt.Errorf("evaluator init failed: %w", err)
	}
	engine := chat.New(cat, gateway, evaluator, logger, metrics)

	store, backend, err := memory.NewStore(ctx, memory.Config{
		DatabaseURL:   cfg.DatabaseURL,
		RedisURL:      cfg.RedisURL,
		TranscriptTTL: cfg.TranscriptTTL,
	})
	if err != nil {
		return fmt.Errorf("transcript store init failed: %w", err)
	}
	defer store.Close()
	logger.Info("transcript store ready", zap.String("backend", backend))

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(s *session.Session) {
		metrics.ObserveSessionEvent("expired")
		metrics.SetActiveSessions(sessions.ActiveCount())
		logger.Info("session expired", zap.String("session_id", s.ID))
	})
	sessions.StartJanitor(ctx, 5*time.Second)

	api := httpapi.New(cfg, httpapi.Deps{
		Engine:       engine,
		Sessions:     sessions,
		Store:        memory.NewRedactingStore(store, logger),
		StoreBackend: backend,
		ProviderName: gateway.ProviderName(),
		Metrics:      metrics,
		Logger:       logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}
	logger.Info("shutdown complete")
	return nil
}
