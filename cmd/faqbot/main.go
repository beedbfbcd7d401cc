// Package main provides the faqbot HTTP server entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bull/faqbot/internal/api"
	"github.com/bull/faqbot/internal/chat"
	"github.com/bull/faqbot/internal/config"
	"github.com/bull/faqbot/internal/crawler"
	"github.com/bull/faqbot/internal/embedding"
	"github.com/bull/faqbot/internal/extract"
	"github.com/bull/faqbot/internal/ingest"
	mcpserver "github.com/bull/faqbot/internal/mcp"
	"github.com/bull/faqbot/internal/storage"
	"github.com/bull/faqbot/internal/tenant"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	teams, err := tenant.Open(cfg.Tenant.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open tenant store: %w", err)
	}
	defer teams.Close()

	// Fails fast when Qdrant is unreachable.
	store, err := storage.NewStore(cfg.Qdrant.Host, cfg.Qdrant.Port, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer store.Close()

	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	client, err := embedding.NewClient(cfg.OpenAI.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.OpenAI.BatchSize)

	browser, err := crawler.NewBrowser(crawler.BrowserConfig{
		RemoteURL:   cfg.Crawl.RemoteBrowser,
		LoadTimeout: cfg.Crawl.LoadTimeout(),
		SettleDelay: cfg.Crawl.SettleDelay(),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer browser.Close()

	classifier, err := extract.NewClassifier(cfg.Crawl.ArticlePattern)
	if err != nil {
		return err
	}
	frontier := crawler.New(browser, classifier, extract.NewExtractor(""), crawler.Config{
		PathPrefix: cfg.Crawl.PathPrefix,
		Logger:     logger,
	})

	pipeline := ingest.New(frontier, nil, embedder, store, cfg.Crawl.MaxPages, logger)
	responder := chat.NewResponder(embedder, store, chat.NewCompleter(client.OpenAI()), logger)

	mcpSrv := mcpserver.NewServer(&mcpserver.Config{
		Responder:     responder,
		Teams:         teams,
		DefaultTeamID: cfg.Tenant.DefaultTeamID,
	})

	var notifier api.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier = api.NewTelegramClient(cfg.Telegram.BotToken)
	}

	apiSrv := api.NewServer(&api.Config{
		Pipeline:      pipeline,
		Responder:     responder,
		Teams:         teams,
		Health:        store,
		Notifier:      notifier,
		DefaultTeamID: cfg.Tenant.DefaultTeamID,
		Logger:        logger,
	})

	handler := apiSrv.Router(map[string]http.Handler{
		"/mcp": mcpserver.NewHTTPHandler(mcpSrv, nil),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
