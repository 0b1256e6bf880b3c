package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idealoop/ideas/internal/api"
	"github.com/idealoop/ideas/internal/config"
	"github.com/idealoop/ideas/internal/types"
	"github.com/idealoop/ideas/internal/ui"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agent",
		GroupID: "agent",
		Short:   "Act as an agent: poll, claim and report on ideas",
		Long: `Act as an agent: poll, claim and report on ideas.

Every subcommand identifies itself with --agent (config agent.id). Only the
agent that claimed an idea may start, report on, ask about, complete or fail it.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "poll",
		Short: "List ideas waiting for an agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ideas, err := newClient().Poll(cmd.Context())
			if err != nil {
				return err
			}
			if ideas == nil {
				ideas = []*types.Idea{}
			}
			return emit(cmd, ideas, ui.WriteIdeaList)
		},
	})

	cmd.AddCommand(
		agentOp("claim <id>", "Claim a pending idea", 0,
			func(ctx context.Context, c *api.Client, id int64, agent, _ string) (*types.StatusChange, error) {
				return c.Claim(ctx, id, agent)
			}),
		agentOp("start <id>", "Start or resume an idea you claimed", 0,
			func(ctx context.Context, c *api.Client, id int64, agent, _ string) (*types.StatusChange, error) {
				return c.Start(ctx, id, agent)
			}),
		agentOp("feedback <id> <message...>", "Report progress on an idea you are executing", 1,
			func(ctx context.Context, c *api.Client, id int64, agent, text string) (*types.StatusChange, error) {
				return c.Feedback(ctx, id, agent, text)
			}),
		agentOp("ask <id> <question...>", "Ask the user a question", 1,
			func(ctx context.Context, c *api.Client, id int64, agent, text string) (*types.StatusChange, error) {
				return c.Ask(ctx, id, agent, text)
			}),
		agentOp("complete <id> [summary...]", "Mark an idea you are executing as completed", -1,
			func(ctx context.Context, c *api.Client, id int64, agent, text string) (*types.StatusChange, error) {
				return c.Complete(ctx, id, agent, text)
			}),
		agentOp("fail <id> <reason...>", "Mark an idea you are executing as failed", 1,
			func(ctx context.Context, c *api.Client, id int64, agent, text string) (*types.StatusChange, error) {
				return c.Fail(ctx, id, agent, text)
			}),
	)
	return cmd
}

type agentCall func(ctx context.Context, c *api.Client, id int64, agent, text string) (*types.StatusChange, error)

// agentOp builds an agent subcommand. text is 0 for none, 1 for required and
// -1 for optional trailing words.
func agentOp(use, short string, text int, call agentCall) *cobra.Command {
	argRule := cobra.ExactArgs(1)
	switch text {
	case 1:
		argRule = cobra.MinimumNArgs(2)
	case -1:
		argRule = cobra.MinimumNArgs(1)
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  argRule,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			change, err := call(cmd.Context(), newClient(), id, config.GetString(config.KeyAgentID), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return emit(cmd, change, ui.WriteChange)
		},
	}
}
