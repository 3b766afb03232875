package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/saturnino-fabrica-de-software/presenca/internal/api"
	"github.com/saturnino-fabrica-de-software/presenca/internal/audit"
	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/engine"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator/deepface"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator/mock"
	"github.com/saturnino-fabrica-de-software/presenca/internal/selector"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store/jsonfile"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store/postgres"
	"github.com/saturnino-fabrica-de-software/presenca/internal/video"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a development convenience; absence is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Presenca API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreBackend),
		slog.String("locator", cfg.LocatorType),
		slog.Bool("auto_enroll", cfg.AutoEnroll),
	)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	// Reference store lifecycle: opened here, flushed on mutation,
	// closed on shutdown.
	refs, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = refs.Close()
	}()

	loc, err := buildLocator(cfg)
	if err != nil {
		return err
	}

	eng := engine.New(
		refs,
		loc,
		video.NewFFmpegOpener(cfg.FFmpegPath, cfg.FFprobePath),
		engine.Config{
			Threshold:  cfg.Threshold,
			MaxSamples: cfg.MaxSamples,
			Stride:     cfg.FrameStride,
			AutoEnroll: cfg.AutoEnroll,
			Selection:  selector.Mode(cfg.Selection),
		},
		logger,
	)

	recorder, err := audit.OpenCSV(cfg.AttendanceLog, logger)
	if err != nil {
		return fmt.Errorf("open attendance log: %w", err)
	}

	router := api.NewRouter(logger, &api.Dependencies{
		Verifier:      eng,
		Recorder:      recorder,
		Store:         refs,
		UploadDir:     cfg.UploadDir,
		VerifyTimeout: cfg.VerifyTimeout,
	})
	router.Setup()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	logger.Info("server stopped")

	return nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.ReferenceStore, error) {
	switch cfg.StoreBackend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		refs, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open reference store: %w", err)
		}
		return refs, nil
	default:
		refs, err := jsonfile.Open(cfg.StorePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open reference store: %w", err)
		}
		return refs, nil
	}
}

func buildLocator(cfg *config.Config) (locator.Locator, error) {
	switch cfg.LocatorType {
	case "mock":
		return mock.New(), nil
	case "deepface":
		dfCfg := deepface.DefaultConfig()
		dfCfg.BaseURL = cfg.DeepFaceURL
		return deepface.New(deepface.NewClient(dfCfg)), nil
	default:
		return nil, fmt.Errorf("unknown locator type %q", cfg.LocatorType)
	}
}
