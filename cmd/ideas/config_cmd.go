package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/idealoop/ideas/internal/config"
	"github.com/idealoop/ideas/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: "setup",
		Short:   "Manage configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file (default ./.ideas/config.yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(".ideas", "config.yaml")
			if len(args) == 1 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			return emit(cmd, map[string]string{"path": path}, func(w io.Writer, _ map[string]string) {
				fmt.Fprintf(w, "%s Wrote %s\n", ui.RenderPass(ui.IconPass), path)
			})
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration and where each value comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if yamlOut, _ := cmd.Flags().GetBool("yaml"); yamlOut {
				data, err := config.EffectiveYAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			type entry struct {
				Key    string `json:"key"`
				Value  any    `json:"value"`
				Source string `json:"source"`
			}
			entries := make([]entry, 0, len(config.Keys))
			for _, k := range config.Keys {
				val := config.Viper().Get(k.Key)
				if k.Secret && config.GetString(k.Key) != "" {
					val = "********"
				}
				entries = append(entries, entry{Key: k.Key, Value: val, Source: string(config.GetValueSource(k.Key))})
			}
			return emit(cmd, entries, func(w io.Writer, es []entry) {
				if used := config.ConfigFileUsed(); used != "" {
					fmt.Fprintln(w, ui.RenderMuted("config file: "+used))
				}
				for _, e := range es {
					src := ""
					if e.Source != string(config.SourceDefault) {
						src = ui.RenderAccent(" (" + e.Source + ")")
					}
					fmt.Fprintf(w, "%-30s %v%s\n", e.Key, e.Value, src)
				}
			})
		},
	}
	showCmd.Flags().Bool("yaml", false, "Print effective values as YAML")

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
