package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/idealoop/ideas/internal/api"
	"github.com/idealoop/ideas/internal/config"
	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/ui"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	configFile  string
	apiURL      string
	agentID     string
	jsonOutput  bool
	verboseFlag bool
)

// globalFlagKeys ties persistent flags to the config keys they override.
var globalFlagKeys = map[string]string{
	"api-url": config.KeyAPIURL,
	"agent":   config.KeyAgentID,
	"json":    config.KeyOutputJSON,
}

func newRootCmd() *cobra.Command {
	configFile, apiURL, agentID = "", "", ""
	jsonOutput, verboseFlag = false, false

	root := &cobra.Command{
		Use:           "ideas",
		Short:         "ideas - hand ideas to coding agents and follow the conversation",
		Long:          `Capture ideas, submit them for execution, and let agents claim, run and report on them through a shared, ordered thread.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Initialize(configFile); err != nil {
				return err
			}
			applyFlagOverrides(cmd)
			if verboseFlag {
				config.Set(config.KeyLogLevel, "debug")
			}
			if err := config.Validate(); err != nil {
				return err
			}
			jsonOutput = config.GetBool(config.KeyOutputJSON)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./.ideas/config.yaml, then the user config dir)")
	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the ideas server (config: api.url)")
	root.PersistentFlags().StringVar(&agentID, "agent", "", "Agent identity for agent commands (config: agent.id)")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	root.AddGroup(&cobra.Group{ID: "ideas", Title: "Working With Ideas:"})
	root.AddGroup(&cobra.Group{ID: "agent", Title: "Agents:"})
	root.AddGroup(&cobra.Group{ID: "setup", Title: "Server & Configuration:"})

	root.AddCommand(ideaCommands()...)
	root.AddCommand(newAgentCmd(), newServeCmd(), newMCPCmd(), newConfigCmd())
	return root
}

// applyFlagOverrides copies explicitly set persistent flags into config.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	for name, key := range globalFlagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		config.MarkFlag(key, func() bool { return f.Changed })
		if f.Changed {
			config.Set(key, f.Value.String())
		}
	}
}

func newClient() *api.Client {
	return api.NewClient(config.GetString(config.KeyAPIURL), 30*time.Second)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		writeError(os.Stderr, err)
		os.Exit(1)
	}
}

// writeError reports err on w, as JSON when --json is set.
func writeError(w io.Writer, err error) {
	if jsonOutput {
		body := map[string]string{"error": err.Error(), "kind": errorKind(err)}
		_ = writeJSON(w, body)
		return
	}
	fmt.Fprintf(w, "%s %v\n", ui.RenderFail("Error:"), err)
	if errors.Is(err, syscall.ECONNREFUSED) {
		fmt.Fprintln(w, ui.RenderMuted("Is the server running? Start it with 'ideas serve'."))
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return api.KindNotFound
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return api.KindInvalidTransition
	case errors.Is(err, lifecycle.ErrForbidden):
		return api.KindForbidden
	case errors.Is(err, lifecycle.ErrInvalidArgument):
		return api.KindInvalidArgument
	default:
		return api.KindInternal
	}
}
