package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duckchat/duckchat/internal/api"
	"github.com/duckchat/duckchat/internal/assist"
	"github.com/duckchat/duckchat/internal/chat"
	"github.com/duckchat/duckchat/internal/config"
	"github.com/duckchat/duckchat/internal/engine/duckdb"
	"github.com/duckchat/duckchat/internal/ingest"
	"github.com/duckchat/duckchat/internal/observability"
	"github.com/duckchat/duckchat/internal/schema"
	"github.com/duckchat/duckchat/internal/store"
	storepostgres "github.com/duckchat/duckchat/internal/store/postgres"
	s3store "github.com/duckchat/duckchat/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("duckchat-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	eng, err := duckdb.Open(cfg.Engine.Path)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = eng.Close() }()

	var settingsStore store.SettingsStore
	var recorder chat.Recorder
	if cfg.Store.DSN != "" {
		storeDB, err := storepostgres.Open(context.Background(), storepostgres.DBConfig{
			DSN:             cfg.Store.DSN,
			MaxOpenConns:    cfg.Store.MaxOpenConns,
			MaxIdleConns:    cfg.Store.MaxIdleConns,
			ConnMaxIdleTime: cfg.Store.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open settings store", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = storeDB.Close() }()

		repository := storepostgres.NewRepository(storeDB)
		if err := repository.EnsureSchema(context.Background()); err != nil {
			logger.Error("failed to prepare settings store schema", slog.Any("error", err))
			os.Exit(1)
		}
		settingsStore = repository
		recorder = repository
	}

	aiConfig := cfg.AI
	prompts := assist.Prompts{}
	if settingsStore != nil {
		settings, found, err := settingsStore.Load(context.Background())
		if err != nil {
			logger.Warn("failed to load stored settings, using environment", slog.Any("error", err))
		} else if found {
			aiConfig = overlaySettings(aiConfig, settings)
			prompts = settings.CustomPrompts
		}
	}

	client, err := assist.NewHTTPClient(assist.HTTPClientConfig{
		BaseURL: aiConfig.BaseURL,
		APIKey:  aiConfig.APIKey,
		Model:   aiConfig.Model,
		Timeout: aiConfig.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize completion client", slog.Any("error", err))
		os.Exit(1)
	}
	assistant := assist.New(assist.Config{
		Client:             client,
		Prompts:            prompts,
		Temperature:        aiConfig.Temperature,
		SuggestTemperature: aiConfig.SuggestTemperature,
		HistoryLimit:       aiConfig.HistoryLimit,
		Logger:             logger,
	})

	builder := schema.NewBuilder(eng, logger)
	if _, err := builder.Refresh(context.Background()); err != nil {
		logger.Warn("initial schema refresh failed", slog.Any("error", err))
	}

	importer := &ingest.Importer{
		Engine: eng,
		Schema: builder,
		Logger: logger,
	}
	if cfg.ObjectStore.Endpoint != "" {
		objectStore, err := s3store.New(s3store.Config{
			Endpoint:        cfg.ObjectStore.Endpoint,
			Region:          cfg.ObjectStore.Region,
			Bucket:          cfg.ObjectStore.Bucket,
			AccessKeyID:     cfg.ObjectStore.AccessKeyID,
			SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
			UseSSL:          cfg.ObjectStore.UseSSL,
			Prefix:          cfg.ObjectStore.Prefix,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		importer.Store = objectStore
	}

	session := chat.NewSession(assistant, eng, builder, recorder, logger)

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:   logger,
		Schema:   builder,
		Session:  session,
		Assist:   assistant,
		Engine:   eng,
		Importer: importer,
		Settings: settingsStore,
		Readiness: api.CombineReadinessChecks(
			api.CheckEngine(eng),
			api.CheckCompletionConfig(cfg),
		),
		DependencyTimeout: time.Second,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

// overlaySettings lets stored settings take precedence over environment
// configuration for the completion API.
func overlaySettings(aiConfig config.AIConfig, settings store.Settings) config.AIConfig {
	if settings.APIURL != "" {
		aiConfig.BaseURL = settings.APIURL
	}
	if settings.APIKey != "" {
		aiConfig.APIKey = settings.APIKey
	}
	if settings.Model != "" {
		aiConfig.Model = settings.Model
	}
	return aiConfig
}
