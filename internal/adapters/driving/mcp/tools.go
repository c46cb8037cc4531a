package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the visitor's question about the shared office"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Intent  string         `json:"intent"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput is one document an answer was grounded on.
type SourceOutput struct {
	Category string `json:"category"`
	Source   string `json:"source"`
	Title    string `json:"title"`
}

// StatusInput is the (empty) input schema for the status tool.
type StatusInput struct{}

// StatusOutput mirrors the readiness payload: overall state, component
// flags and the indexed chunk count.
type StatusOutput struct {
	Status      string           `json:"status"`
	Components  StatusComponents `json:"components"`
	Data        StatusData       `json:"data"`
	LastReindex *RunOutput       `json:"last_reindex,omitempty"`
}

// StatusComponents reports which parts of the pipeline are usable.
type StatusComponents struct {
	LLM         bool `json:"llm"`
	VectorStore bool `json:"vectorStore"`
}

// StatusData carries index counters.
type StatusData struct {
	DocumentsCount int `json:"documentsCount"`
}

// ReindexInput is the (empty) input schema for the reindex tool.
type ReindexInput struct{}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	Status StatusOutput `json:"status"`
}

// RunOutput is one recorded index build.
type RunOutput struct {
	ID          string  `json:"id"`
	Trigger     string  `json:"trigger"`
	StartedAt   string  `json:"started_at"`
	DurationSec float64 `json:"duration_seconds"`
	ChunkCount  int     `json:"chunk_count"`
	Success     bool    `json:"success"`
	Error       string  `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about the shared office from its documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report whether the answer pipeline is ready and how many chunks are indexed",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reindex",
		Description: "Rebuild the vector index from the current documents file",
	}, s.handleReindex)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answers.Answer(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Text,
		Intent:  string(answer.Intent),
		Sources: make([]SourceOutput, len(answer.Sources)),
	}
	for i, c := range answer.Sources {
		output.Sources[i] = SourceOutput(c)
	}

	return nil, output, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return nil, NewStatusOutput(s.ports.Index.Status()), nil
}

// handleReindex handles the reindex tool invocation.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	if err := s.ports.Index.Reindex(ctx, domain.TriggerManual); err != nil {
		return nil, ReindexOutput{}, err
	}
	return nil, ReindexOutput{Status: NewStatusOutput(s.ports.Index.Status())}, nil
}

// NewStatusOutput converts an index status into the readiness payload.
func NewStatusOutput(st domain.IndexStatus) StatusOutput {
	out := StatusOutput{
		Status: st.State(),
		Components: StatusComponents{
			LLM:         st.Ready,
			VectorStore: st.VectorStoreReady(),
		},
		Data: StatusData{DocumentsCount: st.DocumentsCount},
	}
	if st.LastReindex != nil {
		run := NewRunOutput(*st.LastReindex)
		out.LastReindex = &run
	}
	return out
}

// NewRunOutput converts a recorded build for output.
func NewRunOutput(run domain.ReindexRun) RunOutput {
	return RunOutput{
		ID:          run.ID,
		Trigger:     string(run.Trigger),
		StartedAt:   run.StartedAt.Format(time.RFC3339),
		DurationSec: run.Duration().Seconds(),
		ChunkCount:  run.ChunkCount,
		Success:     run.Success,
		Error:       run.Error,
	}
}
