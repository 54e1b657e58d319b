// Chatembeddingd is the chat embedding record daemon.
//
// It exposes the embedding record service over HTTP, backed by either a
// Qdrant collection or an embedded in-memory store.
//
// Usage:
//
//	# Start with defaults (Qdrant on localhost:6334)
//	chatembeddingd
//
//	# Configure via file and environment
//	chatembeddingd --config config.yaml
//	STORE_PROVIDER=memory SERVER_PORT=9000 chatembeddingd
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MyMindSpace/chat-embedding-db/internal/config"
	"github.com/MyMindSpace/chat-embedding-db/internal/docstore"
	"github.com/MyMindSpace/chat-embedding-db/internal/embedding"
	httpserver "github.com/MyMindSpace/chat-embedding-db/internal/http"
	"github.com/MyMindSpace/chat-embedding-db/internal/logging"
	"github.com/MyMindSpace/chat-embedding-db/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "chatembeddingd",
	Short:   "Chat embedding record service",
	Version: fmt.Sprintf("%s (%s)", version, gitCommit),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run wires config, logger, store, service, and HTTP server, then blocks
// until the context is cancelled and shuts everything down in order.
func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Fields: map[string]string{"service": "chatembeddingd"},
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()

	tel, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	store, err := buildStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	service, err := embedding.NewService(store, logger.Named("embedding"))
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	defer func() { _ = service.Close() }()

	server, err := httpserver.NewServer(service, logger.Named("http"), &httpserver.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("chatembeddingd started",
		zap.String("version", version),
		zap.String("store_provider", cfg.Store.Provider),
	)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildStore selects the document store backend from config.
func buildStore(cfg *config.Config, logger *zap.Logger) (docstore.Store, error) {
	switch cfg.Store.Provider {
	case config.ProviderMemory:
		return docstore.NewMemoryStore(logger.Named("memstore")), nil
	case config.ProviderQdrant:
		return docstore.NewQdrantStore(docstore.QdrantConfig{
			Host:           cfg.Store.Qdrant.Host,
			Port:           cfg.Store.Qdrant.Port,
			UseTLS:         cfg.Store.Qdrant.UseTLS,
			APIKey:         cfg.Store.Qdrant.APIKey.Value(),
			Collection:     cfg.Store.Qdrant.Collection,
			RequestTimeout: cfg.Store.Qdrant.RequestTimeout.Duration(),
			PayloadIndexes: embedding.PayloadIndexes(),
		}, logger.Named("qdrant"))
	default:
		return nil, fmt.Errorf("unknown store provider: %q", cfg.Store.Provider)
	}
}
