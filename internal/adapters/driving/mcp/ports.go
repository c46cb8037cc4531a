package mcp

import (
	"github.com/custodia-labs/concierge/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answers answers end-user questions.
	Answers driving.AnswerService

	// Index reports readiness and rebuilds the vector index.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answers == nil {
		return ErrMissingAnswerService
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
