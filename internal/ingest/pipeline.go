// Package ingest orchestrates the full ingestion pipeline for one team:
// crawl the support site, prepare chunks, embed them, and replace the
// team's vector collection.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/faqbot/internal/chunk"
	"github.com/bull/faqbot/internal/extract"
)

// Crawler collects articles from a support site.
type Crawler interface {
	Crawl(ctx context.Context, baseURL string, maxPages int) ([]extract.Article, error)
}

// Embedder turns texts into order-aligned vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Store replaces a team's vector collection wholesale.
type Store interface {
	Replace(ctx context.Context, teamID string, vectors [][]float32, texts []string) error
}

// Result contains statistics about one ingestion run.
type Result struct {
	Articles int
	Chunks   int
	Duration time.Duration
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	crawler  Crawler
	splitter chunk.Splitter
	embedder Embedder
	store    Store
	maxPages int
	logger   *slog.Logger
}

// DefaultMaxPages bounds a crawl when the caller does not override it.
const DefaultMaxPages = 20

// New creates a Pipeline. maxPages <= 0 uses DefaultMaxPages; a nil
// splitter uses the Q/A template splitter.
func New(crawler Crawler, splitter chunk.Splitter, embedder Embedder, store Store, maxPages int, logger *slog.Logger) *Pipeline {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if splitter == nil {
		splitter = chunk.QASplitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		crawler:  crawler,
		splitter: splitter,
		embedder: embedder,
		store:    store,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Ingest runs crawl → prepare → embed → replace for the team. Per-page
// crawl failures are absorbed inside the crawler; failures surfacing here
// are structural and fail the whole run with no partial commit.
func (p *Pipeline) Ingest(ctx context.Context, teamID, baseURL string) (*Result, error) {
	start := time.Now()
	p.logger.Info("ingest: starting", "team", teamID, "url", baseURL, "max_pages", p.maxPages)

	articles, err := p.crawler.Crawl(ctx, baseURL, p.maxPages)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}

	chunks, err := chunk.Prepare(p.splitter, articles)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	texts := chunk.Texts(chunks)

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	if err := p.store.Replace(ctx, teamID, vectors, texts); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	result := &Result{
		Articles: len(articles),
		Chunks:   len(chunks),
		Duration: time.Since(start),
	}
	p.logger.Info("ingest: complete",
		"team", teamID,
		"articles", result.Articles,
		"chunks", result.Chunks,
		"duration", result.Duration,
	)
	return result, nil
}
