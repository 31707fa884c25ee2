package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicworks/presence/internal/api"
	"github.com/civicworks/presence/internal/attendance"
	"github.com/civicworks/presence/internal/audit"
	"github.com/civicworks/presence/internal/checkin"
	"github.com/civicworks/presence/internal/config"
	"github.com/civicworks/presence/internal/enrollment"
	"github.com/civicworks/presence/internal/facematch"
	"github.com/civicworks/presence/internal/facematch/embedded"
	"github.com/civicworks/presence/internal/facematch/mock"
	"github.com/civicworks/presence/internal/facematch/rekognition"
	"github.com/civicworks/presence/internal/location"
	"github.com/civicworks/presence/internal/mlclient"
	"github.com/civicworks/presence/internal/spoof"
	"github.com/civicworks/presence/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Presence API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("matcher", cfg.MatcherType),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	store := enrollment.NewPostgresStore(pool)
	repo := attendance.NewRepository(pool)

	var recorder checkin.Recorder = repo
	if cfg.AlertWebhookURL != "" {
		notifier := webhook.NewNotifier(webhook.Config{
			URL:    cfg.AlertWebhookURL,
			Secret: cfg.AlertWebhookSecret,
		}, logger)
		recorder = webhook.NewNotifyingRecorder(repo, notifier)
	}

	// Face verification engine
	verifier, detector, camera, purger, err := buildFaceEngine(ctx, cfg, store, logger)
	if err != nil {
		return fmt.Errorf("failed to build face engine: %w", err)
	}

	// Location sampling. The server carries a simulated positioner; a
	// kiosk deployment swaps in the device GPS behind the same
	// interface.
	positioner := location.NewSimPositioner(cfg.Office(), 5)
	sampler := location.NewSampler(positioner, location.DefaultConfig(), logger)

	verdicts := mlclient.NewClient(mlclient.Config{
		BaseURL:    cfg.MLServiceURL,
		Timeout:    30 * time.Second,
		RetryCount: 3,
	})

	orchestratorCfg := checkin.DefaultConfig(cfg.Office())
	orchestratorCfg.Window = checkin.Window{
		OpenHour:  cfg.WindowOpenHour,
		CloseHour: cfg.WindowCloseHour,
	}

	orchestrator := checkin.New(checkin.Deps{
		Camera:   camera,
		Detector: detector,
		Verifier: verifier,
		Sampler:  sampler,
		Verdicts: verdicts,
		Recorder: recorder,
		Store:    store,
		Spoof:    spoof.New(spoof.DefaultPolicy()),
		Audit:    audit.NewSlogLogger(logger),
	}, orchestratorCfg, logger)

	if err := orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}
	go func() {
		if err := orchestrator.Run(ctx); err != nil {
			logger.Error("orchestrator stopped", slog.Any("error", err))
		}
	}()

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Orchestrator:    orchestrator,
		EnrollmentStore: store,
		Attendance:      repo,
		Grievances:      verdicts,
		Purger:          purger,
		DB:              pool,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

// buildFaceEngine wires the face verification stack selected by
// MATCHER_TYPE. The mock and embedded variants run fully local; the
// rekognition variant indexes and searches faces in AWS.
func buildFaceEngine(ctx context.Context, cfg *config.Config, store enrollment.Store, logger *slog.Logger) (*facematch.Engine, facematch.Detector, facematch.Camera, facematch.Purger, error) {
	camera := mock.NewCamera(devFrame())

	switch cfg.MatcherType {
	case "rekognition":
		provider, err := rekognition.NewProvider(ctx, rekognition.Config{
			Region:        cfg.AWSRegion,
			Collection:    cfg.AWSCollection,
			MinSimilarity: cfg.MinSimilarity,
		})
		if err != nil {
			return nil, nil, nil, nil, err
		}
		engine := facematch.NewEngine(camera, nil, provider, store, logger).
			WithIndexer(provider)
		return engine, provider, camera, provider, nil

	case "embedded", "mock":
		provider := mock.New()
		matcher := embedded.NewMatcher(provider, store).WithThreshold(cfg.MatchThreshold)
		engine := facematch.NewEngine(camera, provider, matcher, store, logger)
		return engine, provider, camera, nil, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown matcher type: %s", cfg.MatcherType)
	}
}

// devFrame fabricates a frame large enough for the mock detector to
// treat as a face-bearing still.
func devFrame() []byte {
	return bytes.Repeat([]byte{0x7f, 0x3a, 0xc4, 0x19}, 1024)
}
