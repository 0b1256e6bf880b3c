package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

// IdeaTools holds the user-side tool handlers.
type IdeaTools struct {
	Backend Backend
}

// AgentTools holds the agent-side tool handlers. Every call acts as AgentID.
type AgentTools struct {
	Backend Backend
	AgentID string
}

// --- Input types ---

type IDInput struct {
	ID int64 `json:"id" jsonschema:"Idea id"`
}

type CreateInput struct {
	Content string `json:"content" jsonschema:"What the idea is about"`
}

type ListInput struct {
	Status string `json:"status,omitempty" jsonschema:"Only ideas in this status: draft, pending, claimed, executing, waiting_user, waiting_agent, completed, failed or cancelled"`
}

type UpdateInput struct {
	ID      int64  `json:"id" jsonschema:"Idea id"`
	Content string `json:"content" jsonschema:"Replacement content"`
}

type ReplyInput struct {
	ID      int64  `json:"id" jsonschema:"Idea id"`
	Content string `json:"content" jsonschema:"Message to the agent"`
}

type FeedbackInput struct {
	ID      int64  `json:"id" jsonschema:"Idea id"`
	Content string `json:"content" jsonschema:"Progress report"`
}

type AskInput struct {
	ID       int64  `json:"id" jsonschema:"Idea id"`
	Question string `json:"question" jsonschema:"Question for the user"`
}

type CompleteInput struct {
	ID      int64  `json:"id" jsonschema:"Idea id"`
	Summary string `json:"summary,omitempty" jsonschema:"Optional summary of what was done"`
}

type FailInput struct {
	ID     int64  `json:"id" jsonschema:"Idea id"`
	Reason string `json:"reason" jsonschema:"Why execution failed"`
}

// --- Idea handlers ---

func (t *IdeaTools) Create(ctx context.Context, _ *mcp.CallToolRequest, in CreateInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Create(ctx, in.Content))
}

func (t *IdeaTools) List(ctx context.Context, _ *mcp.CallToolRequest, in ListInput) (*mcp.CallToolResult, any, error) {
	var filter *types.Status
	if in.Status != "" {
		st, err := types.ParseStatus(in.Status)
		if err != nil {
			return toolError("Invalid status: %v", err), nil, nil
		}
		filter = &st
	}
	ideas, err := t.Backend.List(ctx, filter)
	if ideas == nil {
		ideas = []*types.Idea{}
	}
	return respond(ideas, err)
}

func (t *IdeaTools) Get(ctx context.Context, _ *mcp.CallToolRequest, in IDInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Get(ctx, in.ID))
}

func (t *IdeaTools) Update(ctx context.Context, _ *mcp.CallToolRequest, in UpdateInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Update(ctx, in.ID, &in.Content))
}

func (t *IdeaTools) Execute(ctx context.Context, _ *mcp.CallToolRequest, in IDInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Execute(ctx, in.ID))
}

func (t *IdeaTools) Cancel(ctx context.Context, _ *mcp.CallToolRequest, in IDInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Cancel(ctx, in.ID))
}

func (t *IdeaTools) Reply(ctx context.Context, _ *mcp.CallToolRequest, in ReplyInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Reply(ctx, in.ID, in.Content))
}

func (t *IdeaTools) Verify(ctx context.Context, _ *mcp.CallToolRequest, in IDInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Verify(ctx, in.ID))
}

// --- Agent handlers ---

func (t *AgentTools) Poll(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	ideas, err := t.Backend.Poll(ctx)
	if ideas == nil {
		ideas = []*types.Idea{}
	}
	return respond(ideas, err)
}

func (t *AgentTools) Claim(ctx context.Context, _ *mcp.CallToolRequest, in IDInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Claim(ctx, in.ID, t.AgentID))
}

func (t *AgentTools) Start(ctx context.Context, _ *mcp.CallToolRequest, in IDInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Start(ctx, in.ID, t.AgentID))
}

func (t *AgentTools) Feedback(ctx context.Context, _ *mcp.CallToolRequest, in FeedbackInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Feedback(ctx, in.ID, t.AgentID, in.Content))
}

func (t *AgentTools) Ask(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Ask(ctx, in.ID, t.AgentID, in.Question))
}

func (t *AgentTools) Complete(ctx context.Context, _ *mcp.CallToolRequest, in CompleteInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Complete(ctx, in.ID, t.AgentID, in.Summary))
}

func (t *AgentTools) Fail(ctx context.Context, _ *mcp.CallToolRequest, in FailInput) (*mcp.CallToolResult, any, error) {
	return respond(t.Backend.Fail(ctx, in.ID, t.AgentID, in.Reason))
}

// --- Helpers ---

// respond renders v as JSON, or err as an IsError result the agent can read.
func respond[T any](v T, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError("%s: %v", errorKind(err), err), nil, nil
	}
	return toolJSON(v)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "Not found"
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return "Invalid transition"
	case errors.Is(err, lifecycle.ErrForbidden):
		return "Forbidden"
	case errors.Is(err, lifecycle.ErrInvalidArgument):
		return "Invalid argument"
	default:
		return "Request failed"
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
