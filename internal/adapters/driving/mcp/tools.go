package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Tenant   string  `json:"tenant" jsonschema:"the tenant whose knowledge base to search"`
	Query    string  `json:"query" jsonschema:"the question or phrase to find policy context for"`
	TopK     int     `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 3)"`
	MinScore float64 `json:"min_score,omitempty" jsonschema:"relevance floor override in [0, 1]"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunks    []RetrievedChunkOutput `json:"chunks"`
	NoContext bool                   `json:"no_context"`
	BestScore float64                `json:"best_score"`
}

// RetrievedChunkOutput represents a single retrieved chunk.
type RetrievedChunkOutput struct {
	Document string  `json:"document"`
	Title    string  `json:"title,omitempty"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Tenant   string   `json:"tenant" jsonschema:"the tenant whose knowledge base to answer from"`
	Question string   `json:"question" jsonschema:"the employee question"`
	History  []string `json:"history,omitempty" jsonschema:"prior conversation turns, oldest first"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string   `json:"answer"`
	Grounded bool     `json:"grounded"`
	Sources  []string `json:"sources,omitempty"`
}

// ReloadInput is the input schema for the reload tool.
type ReloadInput struct {
	Tenant string `json:"tenant" jsonschema:"the tenant whose knowledge directory to re-ingest"`
}

// ReloadOutput is the output schema for the reload tool.
type ReloadOutput struct {
	Ingested int      `json:"ingested"`
	Skipped  int      `json:"skipped"`
	Chunks   int      `json:"chunks"`
	Failures []string `json:"failures,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve relevant HR policy excerpts for a query",
	}, s.handleRetrieve)

	if s.ports.Ask != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer an HR question grounded in policy documents",
		}, s.handleAsk)
	}

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reload",
			Description: "Re-ingest a tenant's knowledge directory",
		}, s.handleReload)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	opts := domain.RetrieveOptions{TopK: input.TopK, MinScore: input.MinScore}
	result, err := s.ports.Retrieval.Retrieve(ctx, domain.TenantID(input.Tenant), input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Chunks:    make([]RetrievedChunkOutput, len(result.Chunks)),
		NoContext: result.NoContext,
		BestScore: result.BestScore,
	}
	for i, c := range result.Chunks {
		output.Chunks[i] = RetrievedChunkOutput{
			Document: c.DocumentName,
			Title:    c.DocumentTitle,
			Score:    c.Score,
			Content:  c.Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Ask.Ask(ctx, domain.TenantID(input.Tenant), input.Question, input.History)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:   answer.Text,
		Grounded: answer.Grounded,
	}
	seen := make(map[string]bool)
	for _, src := range answer.Sources {
		if src.DocumentName == "" || seen[src.DocumentName] {
			continue
		}
		seen[src.DocumentName] = true
		output.Sources = append(output.Sources, src.DocumentName)
	}

	return nil, output, nil
}

// handleReload handles the reload tool invocation.
func (s *Server) handleReload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReloadInput,
) (*mcp.CallToolResult, ReloadOutput, error) {
	report, err := s.ports.Ingest.Reload(ctx, domain.TenantID(input.Tenant))
	if err != nil {
		return nil, ReloadOutput{}, err
	}

	output := ReloadOutput{
		Ingested: report.Ingested,
		Skipped:  report.Skipped,
		Chunks:   report.Chunks,
	}
	for _, f := range report.Failures {
		output.Failures = append(output.Failures, f.Name+": "+f.Err.Error())
	}

	return nil, output, nil
}
