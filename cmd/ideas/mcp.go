package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/idealoop/ideas/internal/config"
	"github.com/idealoop/ideas/internal/mcptools"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mcp",
		GroupID: "agent",
		Short:   "Serve the agent tools over the Model Context Protocol",
		Long: `Serve the agent tools over the Model Context Protocol.

Tools call the ideas server at api.url and act as agent.id. Use --transport
stdio (default) when launched by an MCP client, or http to serve streamable
HTTP on --addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			addr, _ := cmd.Flags().GetString("addr")
			return runMCP(cmd.Context(), transport, addr)
		},
	}
	cmd.Flags().String("transport", "stdio", "Transport: stdio or http")
	cmd.Flags().String("addr", "127.0.0.1:8081", "Listen address for --transport http")
	return cmd
}

func runMCP(ctx context.Context, transport, addr string) error {
	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	agent := config.GetString(config.KeyAgentID)
	srv := mcptools.New(newClient(), agent, Version)

	switch transport {
	case "stdio":
		logger.Info("mcp server starting", "transport", "stdio", "agent", agent)
		return srv.Run(ctx, &mcp.StdioTransport{})
	case "http":
		handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
		httpSrv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
		logger.Info("mcp server listening", "transport", "http", "addr", addr, "agent", agent)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q (use stdio or http)", transport)
	}
}
