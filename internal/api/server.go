// Package api exposes the HTTP surface: ingestion and query endpoints,
// the Telegram webhook, a health check and the landing page.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bull/faqbot/internal/ingest"
	"github.com/bull/faqbot/internal/tenant"
)

// Pipeline runs a full ingestion for one team.
type Pipeline interface {
	Ingest(ctx context.Context, teamID, baseURL string) (*ingest.Result, error)
}

// Answerer produces a grounded answer for a team's question.
type Answerer interface {
	Answer(ctx context.Context, teamID, question, instructions string) string
}

// TeamStore persists teams and their custom instructions.
type TeamStore interface {
	GetOrCreate(ctx context.Context, teamID string) (*tenant.Team, error)
	Get(ctx context.Context, teamID string) (*tenant.Team, error)
	SetInstructions(ctx context.Context, teamID, instructions string) error
}

// Notifier delivers an answer back to a Telegram chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	pipeline      Pipeline
	responder     Answerer
	teams         TeamStore
	health        HealthChecker
	notifier      Notifier
	defaultTeamID string
	logger        *slog.Logger
}

// Config holds server dependencies.
type Config struct {
	Pipeline      Pipeline
	Responder     Answerer
	Teams         TeamStore
	Health        HealthChecker
	Notifier      Notifier
	DefaultTeamID string
	Logger        *slog.Logger
}

// NewServer creates the API server from its collaborators.
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline:      cfg.Pipeline,
		responder:     cfg.Responder,
		teams:         cfg.Teams,
		health:        cfg.Health,
		notifier:      cfg.Notifier,
		defaultTeamID: cfg.DefaultTeamID,
		logger:        logger,
	}
}

// Router builds the chi router with all routes and middleware mounted.
// Extra handlers (the MCP transport) can be attached by the caller.
func (s *Server) Router(extra map[string]http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))

	r.Get("/", NewLandingHandler())
	r.Get("/health", NewHealthHandler(s.health))
	r.Post("/api/scrape/", s.handleScrape)
	r.Post("/api/query/", s.handleQuery)
	r.Post("/telegram/webhook/", s.handleTelegramWebhook)

	for path, h := range extra {
		r.Handle(path, h)
		r.Handle(path+"/*", h)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
