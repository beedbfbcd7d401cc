// Package chat answers user questions grounded in a team's indexed
// support articles: embed the question, retrieve the most similar chunks,
// and hand a context-stuffed prompt to the completion model.
//
// The outward contract is deliberately flat: Answer always returns a
// string. End users get a stable degraded message no matter which internal
// stage failed; operators get the detail in the logs.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/faqbot/internal/storage"
)

const (
	// TopK is how many chunks are retrieved per question.
	TopK = 5

	// DefaultSystemPrompt applies when the team has no custom instructions.
	DefaultSystemPrompt = "You are a helpful assistant."

	// NoInformationMessage is the normal outcome for a question with no
	// relevant indexed content. It is not an error.
	NoInformationMessage = "I'm sorry, I couldn't find relevant information for your query."

	// FailureMessage replaces any internal failure.
	FailureMessage = "An error occurred while processing your request."
)

// Embedder embeds a single question.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Searcher retrieves the team's most similar chunk texts.
type Searcher interface {
	Search(ctx context.Context, teamID string, vector []float32, limit int) ([]string, error)
}

// CompletionService generates the final answer.
type CompletionService interface {
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// Responder orchestrates the query path.
type Responder struct {
	embedder  Embedder
	searcher  Searcher
	completer CompletionService
	logger    *slog.Logger
}

// NewResponder creates a Responder from its collaborators.
func NewResponder(embedder Embedder, searcher Searcher, completer CompletionService, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		embedder:  embedder,
		searcher:  searcher,
		completer: completer,
		logger:    logger,
	}
}

// Answer responds to a question for the team. Custom instructions, when
// non-empty, override the default system prompt. An absent collection or
// empty retrieval yields NoInformationMessage without calling the
// completion model; every failure yields FailureMessage.
func (r *Responder) Answer(ctx context.Context, teamID, question, instructions string) string {
	vector, err := r.embedder.EmbedOne(ctx, question)
	if err != nil {
		r.logger.Error("answer: embedding question failed", "team", teamID, "error", err)
		return FailureMessage
	}

	texts, err := r.searcher.Search(ctx, teamID, vector, TopK)
	if errors.Is(err, storage.ErrCollectionNotFound) {
		r.logger.Warn("answer: no collection for team", "team", teamID)
		return NoInformationMessage
	}
	if err != nil {
		r.logger.Error("answer: search failed", "team", teamID, "error", err)
		return FailureMessage
	}
	if len(texts) == 0 {
		r.logger.Warn("answer: no relevant texts found", "team", teamID)
		return NoInformationMessage
	}

	systemPrompt := instructions
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	userContent := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s",
		strings.Join(texts, "\n\n"), question)

	answer, err := r.completer.Complete(ctx, systemPrompt, userContent)
	if err != nil {
		r.logger.Error("answer: completion failed", "team", teamID, "error", err)
		return FailureMessage
	}

	r.logger.Info("answer: generated response", "team", teamID, "context_chunks", len(texts))
	return answer
}
