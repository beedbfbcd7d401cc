// Package main provides the faqctl CLI for managing support-site indexes.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/faqbot/internal/chat"
	"github.com/bull/faqbot/internal/config"
	"github.com/bull/faqbot/internal/crawler"
	"github.com/bull/faqbot/internal/embedding"
	"github.com/bull/faqbot/internal/extract"
	"github.com/bull/faqbot/internal/ingest"
	"github.com/bull/faqbot/internal/storage"
	"github.com/bull/faqbot/internal/tenant"
)

var (
	flagTeam     string
	flagURL      string
	flagMaxPages int
)

var rootCmd = &cobra.Command{
	Use:   "faqctl",
	Short: "Support-site index management tool",
	Long:  "CLI tool for crawling support sites, querying answers and managing per-team Qdrant collections",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Crawl a support site and rebuild the team's collection",
	Long: `Crawls the support site, extracts articles, embeds them and atomically
replaces the team's vector collection.

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings (required)`,
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question against a team's index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete a team's collection",
	RunE:  runDrop,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check Qdrant connectivity",
	RunE:  runHealth,
}

func init() {
	ingestCmd.Flags().StringVar(&flagTeam, "team", "", "team identifier (required)")
	ingestCmd.Flags().StringVar(&flagURL, "url", "", "support site base URL (required)")
	ingestCmd.Flags().IntVar(&flagMaxPages, "max-pages", 0, "crawl page bound (default from config)")
	ingestCmd.MarkFlagRequired("team")
	ingestCmd.MarkFlagRequired("url")

	askCmd.Flags().StringVar(&flagTeam, "team", "", "team identifier (required)")
	askCmd.MarkFlagRequired("team")

	dropCmd.Flags().StringVar(&flagTeam, "team", "", "team identifier (required)")
	dropCmd.MarkFlagRequired("team")

	rootCmd.AddCommand(ingestCmd, askCmd, dropCmd, healthCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(os.Getenv("CONFIG_PATH"))
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.Qdrant.Host, cfg.Qdrant.Port)
	return storage.NewStore(cfg.Qdrant.Host, cfg.Qdrant.Port, slog.Default())
}

func openEmbedding(cfg *config.Config) (*embedding.Client, *embedding.Embedder, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	client, err := embedding.NewClient(cfg.OpenAI.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	return client, embedding.NewEmbedder(client, cfg.OpenAI.BatchSize), nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer store.Close()

	_, embedder, err := openEmbedding(cfg)
	if err != nil {
		return err
	}

	fmt.Println("Starting browser...")
	browser, err := crawler.NewBrowser(crawler.BrowserConfig{
		RemoteURL:   cfg.Crawl.RemoteBrowser,
		LoadTimeout: cfg.Crawl.LoadTimeout(),
		SettleDelay: cfg.Crawl.SettleDelay(),
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
	})

	maxPages := flagMaxPages
	if maxPages <= 0 {
		maxPages = cfg.Crawl.MaxPages
	}
	pipeline := ingest.New(frontier, nil, embedder, store, maxPages, slog.Default())

	fmt.Printf("Crawling %s (up to %d pages)...\n", flagURL, maxPages)
	result, err := pipeline.Ingest(ctx, flagTeam, flagURL)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingest complete!")
	fmt.Printf("  Articles: %d\n", result.Articles)
	fmt.Printf("  Chunks:   %d\n", result.Chunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer store.Close()

	client, embedder, err := openEmbedding(cfg)
	if err != nil {
		return err
	}

	var instructions string
	teams, err := tenant.Open(cfg.Tenant.DBPath)
	if err == nil {
		defer teams.Close()
		if team, err := teams.Get(ctx, flagTeam); err == nil {
			instructions = team.Instructions
		} else if !errors.Is(err, tenant.ErrNotFound) {
			return fmt.Errorf("failed to load team: %w", err)
		}
	}

	responder := chat.NewResponder(embedder, store, chat.NewCompleter(client.OpenAI()), slog.Default())
	fmt.Println(responder.Answer(ctx, flagTeam, question, instructions))
	return nil
}

func runDrop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer store.Close()

	existed, err := store.Drop(ctx, flagTeam)
	if err != nil {
		return fmt.Errorf("drop failed: %w", err)
	}
	if existed {
		fmt.Printf("Collection for team %s deleted.\n", flagTeam)
	} else {
		fmt.Printf("Team %s had no collection.\n", flagTeam)
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer store.Close()

	if err := store.Health(ctx); err != nil {
		return fmt.Errorf("Qdrant health check failed: %w", err)
	}
	fmt.Println("Qdrant healthy")
	return nil
}
