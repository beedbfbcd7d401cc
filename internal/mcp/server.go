package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/faqbot/internal/tenant"
)

// Answerer produces a grounded answer for a team's question.
type Answerer interface {
	Answer(ctx context.Context, teamID, question, instructions string) string
}

// TeamGetter loads a team's stored custom instructions.
type TeamGetter interface {
	Get(ctx context.Context, teamID string) (*tenant.Team, error)
}

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Responder     Answerer
	Teams         TeamGetter
	DefaultTeamID string
}

// NewServer creates a configured MCP server with the ask_support tool
// registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "faqbot",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_support",
		Description: "Ask a question against a team's indexed support articles. Answers are grounded in retrieved article chunks.",
	}, makeAskHandler(cfg.Responder, cfg.Teams, cfg.DefaultTeamID))

	return &Server{server: server}
}

// makeAskHandler creates the ask_support tool handler. Team resolution
// mirrors the query API: missing team_id falls back to the default team,
// and an unknown team simply runs without custom instructions.
func makeAskHandler(responder Answerer, teams TeamGetter, defaultTeamID string) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		if input.Question == "" {
			return nil, AskOutput{}, fmt.Errorf("question is required")
		}

		teamID := input.TeamID
		if teamID == "" {
			teamID = defaultTeamID
		}
		if teamID == "" {
			return nil, AskOutput{}, fmt.Errorf("no team_id given and no default team configured")
		}

		var instructions string
		if teams != nil {
			team, err := teams.Get(ctx, teamID)
			if err != nil && !errors.Is(err, tenant.ErrNotFound) {
				return nil, AskOutput{}, fmt.Errorf("failed to load team %s: %w", teamID, err)
			}
			if team != nil {
				instructions = team.Instructions
			}
		}

		answer := responder.Answer(ctx, teamID, input.Question, instructions)
		return nil, AskOutput{Answer: answer, TeamID: teamID}, nil
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
