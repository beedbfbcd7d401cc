package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bull/faqbot/internal/chunk"
	"github.com/bull/faqbot/internal/crawler"
	"github.com/bull/faqbot/internal/storage"
	"github.com/bull/faqbot/internal/tenant"
)

// flexID accepts a JSON string or number for team identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("team_id must be a string or number")
	}
	*f = flexID(n.String())
	return nil
}

type scrapeRequest struct {
	TeamID             flexID `json:"team_id"`
	URL                string `json:"url"`
	CustomInstructions string `json:"custom_instructions"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TeamID == "" || req.URL == "" {
		writeError(w, http.StatusBadRequest, "team_id and url are required")
		return
	}
	teamID := string(req.TeamID)

	if _, err := s.teams.GetOrCreate(r.Context(), teamID); err != nil {
		s.logger.Error("scrape: team lookup failed", "team", teamID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store team")
		return
	}
	if req.CustomInstructions != "" {
		if err := s.teams.SetInstructions(r.Context(), teamID, req.CustomInstructions); err != nil {
			s.logger.Error("scrape: saving instructions failed", "team", teamID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to store instructions")
			return
		}
	}

	result, err := s.pipeline.Ingest(r.Context(), teamID, req.URL)
	switch {
	case errors.Is(err, crawler.ErrNoPages),
		errors.Is(err, chunk.ErrNoArticles),
		errors.Is(err, storage.ErrInvalidIngest):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("scrape: ingestion failed", "team", teamID, "error", err)
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	s.logger.Info("scrape: complete",
		"team", teamID, "articles", result.Articles, "chunks", result.Chunks)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Data for team %s has been updated.", teamID),
	})
}

type queryRequest struct {
	TeamID  flexID `json:"team_id"`
	Message string `json:"message"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	teamID := string(req.TeamID)
	if teamID == "" {
		teamID = s.defaultTeamID
	}
	if teamID == "" {
		writeError(w, http.StatusBadRequest, "team_id is required and no default team is configured")
		return
	}

	answer := s.responder.Answer(r.Context(), teamID, req.Message, s.instructionsFor(r, teamID))
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// instructionsFor loads the team's custom instructions. An unknown team is
// not an error on the query path; it just gets the default prompt.
func (s *Server) instructionsFor(r *http.Request, teamID string) string {
	team, err := s.teams.Get(r.Context(), teamID)
	if errors.Is(err, tenant.ErrNotFound) {
		return ""
	}
	if err != nil {
		s.logger.Error("query: team lookup failed", "team", teamID, "error", err)
		return ""
	}
	return team.Instructions
}

// telegramUpdate is the subset of the Bot API update shape the webhook
// cares about.
type telegramUpdate struct {
	Message *struct {
		Chat *struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// handleTelegramWebhook answers under the default team and relays the
// result to the chat. The platform always gets a 200; a non-2xx would make
// Telegram redeliver the same update.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)

	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn("webhook: malformed update", "error", err)
		return
	}
	if update.Message == nil || update.Message.Chat == nil || update.Message.Text == "" {
		return
	}
	if s.defaultTeamID == "" || s.notifier == nil {
		s.logger.Warn("webhook: telegram relay not configured")
		return
	}

	answer := s.responder.Answer(r.Context(), s.defaultTeamID, update.Message.Text,
		s.instructionsFor(r, s.defaultTeamID))

	if err := s.notifier.SendMessage(r.Context(), update.Message.Chat.ID, answer); err != nil {
		s.logger.Error("webhook: relay failed", "chat", update.Message.Chat.ID, "error", err)
	}
}
