package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idealoop/ideas/internal/types"
	"github.com/idealoop/ideas/internal/ui"
)

func ideaCommands() []*cobra.Command {
	return []*cobra.Command{
		newCreateCmd(), newListCmd(), newShowCmd(), newUpdateCmd(), newDeleteCmd(),
		newExecuteCmd(), newCancelCmd(), newReplyCmd(), newVerifyCmd(),
	}
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "create <content...>",
		GroupID: "ideas",
		Short:   "Capture a new idea as a draft",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idea, err := newClient().Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return emit(cmd, idea, func(w io.Writer, i *types.Idea) {
				fmt.Fprintf(w, "%s Created idea #%d (%s)\n", ui.RenderPass(ui.IconPass), i.ID, ui.RenderStatus(i.Status))
			})
		},
	}
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		GroupID: "ideas",
		Short:   "List ideas, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *types.Status
			if raw, _ := cmd.Flags().GetString("status"); raw != "" {
				st, err := types.ParseStatus(raw)
				if err != nil {
					return err
				}
				filter = &st
			}
			ideas, err := newClient().List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if ideas == nil {
				ideas = []*types.Idea{}
			}
			return emit(cmd, ideas, ui.WriteIdeaList)
		},
	}
	cmd.Flags().StringP("status", "s", "", "Only ideas in this status")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show <id>",
		GroupID: "ideas",
		Short:   "Show an idea and its thread",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			idea, err := newClient().Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return emit(cmd, idea, ui.WriteIdea)
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "update <id> <content...>",
		GroupID: "ideas",
		Short:   "Replace an idea's content",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			content := strings.Join(args[1:], " ")
			idea, err := newClient().Update(cmd.Context(), id, &content)
			if err != nil {
				return err
			}
			return emit(cmd, idea, func(w io.Writer, i *types.Idea) {
				fmt.Fprintf(w, "%s Updated idea #%d\n", ui.RenderPass(ui.IconPass), i.ID)
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		GroupID: "ideas",
		Short:   "Delete an idea and its thread",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := newClient().Delete(cmd.Context(), id); err != nil {
				return err
			}
			return emit(cmd, map[string]int64{"deleted": id}, func(w io.Writer, _ map[string]int64) {
				fmt.Fprintf(w, "%s Deleted idea #%d\n", ui.RenderPass(ui.IconPass), id)
			})
		},
	}
}

func newExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "execute <id>",
		GroupID: "ideas",
		Short:   "Submit a draft idea to the agents",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			change, err := newClient().Execute(cmd.Context(), id)
			if err != nil {
				return err
			}
			return emit(cmd, change, ui.WriteChange)
		},
	}
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "cancel <id>",
		GroupID: "ideas",
		Short:   "Cancel an idea that has not finished",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			change, err := newClient().Cancel(cmd.Context(), id)
			if err != nil {
				return err
			}
			return emit(cmd, change, ui.WriteChange)
		},
	}
}

func newReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "reply <id> <message...>",
		GroupID: "ideas",
		Short:   "Post a message to an idea's thread",
		Long: `Post a message to an idea's thread.

When the idea is waiting_user this answers the agent's question and hands the
idea back to the agent (waiting_agent). In any other status the message is
recorded without changing status.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg, err := newClient().Reply(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return emit(cmd, msg, ui.WriteMessage)
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "verify <id>",
		GroupID: "ideas",
		Short:   "Check that an idea's thread replays to its stored status",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := newClient().Verify(cmd.Context(), id)
			if err != nil {
				return err
			}
			return emit(cmd, v, ui.WriteVerification)
		},
	}
}
