// Package mcp exposes the question-answering path as an MCP tool, usable
// over stdio or streamable HTTP.
package mcp

// AskInput defines the input parameters for the ask_support tool.
type AskInput struct {
	// Question is the user question to answer from indexed support articles.
	Question string `json:"question" jsonschema:"required,description=The question to answer from the team's indexed support articles"`
	// TeamID selects whose knowledge base to query. Empty uses the default team.
	TeamID string `json:"team_id,omitempty" jsonschema:"description=Team whose knowledge base to query; omit for the default team"`
}

// AskOutput contains the generated answer.
type AskOutput struct {
	// Answer is the grounded response, or a fixed message when no relevant
	// content exists.
	Answer string `json:"answer"`
	// TeamID is the team that was actually queried.
	TeamID string `json:"team_id"`
}
