package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"langteacher/apiclient"
	"langteacher/config"
	apierrors "langteacher/errors"
	"langteacher/mockapi"
	"langteacher/services"
	"langteacher/state"
	"langteacher/types"

	"go.uber.org/zap"
)

func main() {
	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info", "console")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.MockAPIAddr != "" {
		mock := mockapi.New(logger)
		go func() {
			if err := mock.Start(ctx, cfg.MockAPIAddr); err != nil {
				logger.Error("Mock API server error", zap.Error(err))
				cancel()
			}
		}()
		cfg.APIBaseURL = mockBaseURL(cfg.MockAPIAddr)
	}

	client := apiclient.New(cfg, logger)
	store := state.NewStore(cfg.ErrorClearDelay, logger)
	defer store.Close()
	app := services.NewApp(client, store, cfg, logger)

	store.Error.Subscribe(func(msg string) {
		if msg != "" {
			logger.Warn("Error shown to user", zap.String("message", msg))
		}
	})

	health, err := waitForBackend(ctx, app, logger)
	if err != nil {
		logger.Error("Backend unreachable", zap.String("base_url", client.BaseURL()), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Connected to backend",
		zap.String("base_url", client.BaseURL()),
		zap.String("status", health.Status),
		zap.String("version", health.Version))

	if err := app.Refresh(ctx); err != nil {
		logger.Error("Initial load failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("State loaded",
		zap.Int("topic_chats", len(store.TopicChats.Get())),
		zap.Int("grammar_chats", len(store.GrammarChats.Get())),
		zap.Int("document_chats", len(store.DocumentChats.Get())),
		zap.Int("categories", len(store.Categories.Get())),
		zap.Int("documents", len(store.Documents.Get())),
		zap.Int("grammar_rules", len(store.GrammarRules.Get())))

	<-ctx.Done()
	logger.Info("Shutting down")
}

// waitForBackend retries the health check briefly while the backend is
// unreachable or unavailable, so an embedded mock server has time to bind.
// Any other failure is returned at once.
func waitForBackend(ctx context.Context, app *services.App, logger *zap.Logger) (*types.Health, error) {
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		health, err := app.HealthCheck(ctx)
		if err == nil {
			app.State().Error.Clear()
			return health, nil
		}
		lastErr = err
		if !apierrors.IsTransport(err) && !apierrors.IsServiceUnavailable(err) {
			return nil, err
		}
		logger.Debug("Health check failed", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}
	return nil, lastErr
}

func mockBaseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
