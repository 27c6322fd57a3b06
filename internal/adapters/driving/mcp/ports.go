package mcp

import (
	"github.com/cleardesk/hrkb/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP
// server. This provides a single injection point for dependency
// injection.
type Ports struct {
	// Retrieval provides grounded-context retrieval.
	Retrieval driving.RetrievalService

	// Ask runs the full retrieve-then-generate flow.
	Ask driving.AskService

	// Ingest triggers knowledge base reloads.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Ask and Ingest are optional; their tools are registered only
	// when present.
	return nil
}
