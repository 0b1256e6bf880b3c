package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}

// emit prints v as JSON under --json, otherwise through human.
func emit[T any](cmd *cobra.Command, v T, human func(io.Writer, T)) error {
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	human(cmd.OutOrStdout(), v)
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid idea id %q", arg)
	}
	return id, nil
}
