// Package mcptools exposes the ideas API to coding agents as MCP tools.
package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/idealoop/ideas/internal/engine"
	"github.com/idealoop/ideas/internal/types"
)

// Backend is the part of api.Client the tools call.
type Backend interface {
	Create(ctx context.Context, content string) (*types.Idea, error)
	List(ctx context.Context, status *types.Status) ([]*types.Idea, error)
	Get(ctx context.Context, id int64) (*types.IdeaWithMessages, error)
	Update(ctx context.Context, id int64, content *string) (*types.Idea, error)
	Execute(ctx context.Context, id int64) (*types.StatusChange, error)
	Cancel(ctx context.Context, id int64) (*types.StatusChange, error)
	Reply(ctx context.Context, id int64, content string) (*types.Message, error)
	Verify(ctx context.Context, id int64) (*engine.Verification, error)
	Poll(ctx context.Context) ([]*types.Idea, error)
	Claim(ctx context.Context, id int64, agent string) (*types.StatusChange, error)
	Start(ctx context.Context, id int64, agent string) (*types.StatusChange, error)
	Feedback(ctx context.Context, id int64, agent, content string) (*types.StatusChange, error)
	Ask(ctx context.Context, id int64, agent, question string) (*types.StatusChange, error)
	Complete(ctx context.Context, id int64, agent, summary string) (*types.StatusChange, error)
	Fail(ctx context.Context, id int64, agent, reason string) (*types.StatusChange, error)
}

// New creates an MCP server with every idea and agent tool registered.
// Agent tools act as agentID.
func New(backend Backend, agentID, version string) *mcp.Server {
	it := &IdeaTools{Backend: backend}
	at := &AgentTools{Backend: backend, AgentID: agentID}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "ideas",
		Version: version,
	}, nil)

	// User-side tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "idea_create",
		Description: "Create a new idea in draft status",
	}, it.Create)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "idea_list",
		Description: "List ideas newest first, optionally filtered by status",
	}, it.List)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "idea_get",
		Description: "Get an idea with its full message thread, oldest first",
	}, it.Get)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "idea_update",
		Description: "Replace an idea's content without changing its status",
	}, it.Update)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "idea_execute",
		Description: "Submit a draft idea for execution (draft -> pending)",
	}, it.Execute)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "idea_cancel",
		Description: "Cancel an idea that is not yet completed, failed or cancelled",
	}, it.Cancel)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "idea_reply",
		Description: "Post a user message; answers a pending agent question when the idea is waiting_user",
	}, it.Reply)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "idea_verify",
		Description: "Replay an idea's thread and check it matches the stored status",
	}, it.Verify)

	// Agent-side tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "agent_poll",
		Description: "List ideas waiting for an agent (pending or waiting_agent), oldest update first",
	}, at.Poll)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "agent_claim",
		Description: "Claim a pending idea; only one agent can win a claim",
	}, at.Claim)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "agent_start",
		Description: "Start or resume execution of an idea you claimed",
	}, at.Start)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "agent_feedback",
		Description: "Record progress on an idea you are executing",
	}, at.Feedback)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "agent_ask",
		Description: "Ask the user a question and park the idea in waiting_user",
	}, at.Ask)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "agent_complete",
		Description: "Mark an idea you are executing as completed",
	}, at.Complete)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "agent_fail",
		Description: "Mark an idea you are executing as failed, with a reason",
	}, at.Fail)

	return srv
}
