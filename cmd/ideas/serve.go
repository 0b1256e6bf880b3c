package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/idealoop/ideas/internal/api"
	"github.com/idealoop/ideas/internal/config"
	"github.com/idealoop/ideas/internal/engine"
	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/logging"
	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/storage/mysql"
	"github.com/idealoop/ideas/internal/storage/sqlite"
	"github.com/idealoop/ideas/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "setup",
		Short:   "Run the ideas HTTP server",
		Long: `Run the ideas HTTP server.

The storage backend is chosen by db.driver: "sqlite" (file at db.path) or
"mysql" (mysql.* keys). The server stops cleanly on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				config.Set(config.KeyHTTPAddr, addr)
				if err := config.Validate(); err != nil {
					return err
				}
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "Listen address (config: http.addr)")
	return cmd
}

func newLogger() (*slog.Logger, func(), error) {
	logger, w, err := logging.New(logging.Options{
		Level:      config.GetString(config.KeyLogLevel),
		JSON:       config.GetBool(config.KeyLogJSON),
		File:       config.GetString(config.KeyLogFile),
		MaxSizeMB:  config.GetInt(config.KeyLogMaxSizeMB),
		MaxBackups: config.GetInt(config.KeyLogMaxBackups),
		MaxAgeDays: config.GetInt(config.KeyLogMaxAgeDays),
		Compress:   config.GetBool(config.KeyLogCompress),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, func() { _ = w.Close() }, nil
}

// openStore opens the backend selected by db.driver.
func openStore(ctx context.Context) (storage.Storage, error) {
	switch config.GetString(config.KeyDBDriver) {
	case config.DriverMySQL:
		return mysql.New(ctx, mysql.Config{
			Host:     config.GetString(config.KeyMySQLHost),
			Port:     config.GetInt(config.KeyMySQLPort),
			User:     config.GetString(config.KeyMySQLUser),
			Password: config.GetString(config.KeyMySQLPassword),
			Database: config.GetString(config.KeyMySQLDatabase),
			TLS:      config.GetBool(config.KeyMySQLTLS),
		})
	default:
		return sqlite.New(ctx, config.GetString(config.KeyDBPath))
	}
}

func runServe(ctx context.Context) error {
	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	if err := telemetry.Init(ctx, telemetry.Options{
		Enabled:      config.GetBool(config.KeyTelemetry),
		Stdout:       config.GetBool(config.KeyTelemetryOut),
		OTLPEndpoint: config.GetString(config.KeyTelemetryOTLP),
		ServiceName:  "ideas",
		Version:      Version,
	}); err != nil {
		return fmt.Errorf("failed to initialise telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(shutdownCtx)
	}()

	raw, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", config.GetString(config.KeyDBDriver), err)
	}
	store := telemetry.WrapStorage(raw)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", "error", err)
		}
	}()

	eng := engine.New(store,
		engine.WithLogger(logger),
		engine.WithPolicy(lifecycle.Policy{LockTerminalContent: config.GetBool(config.KeyLockTerminal)}),
	)
	srv := api.NewServer(eng, store, config.GetString(config.KeyHTTPAddr), logger)

	logger.Info("starting ideas server",
		"version", Version,
		"driver", config.GetString(config.KeyDBDriver),
		"addr", config.GetString(config.KeyHTTPAddr),
		"config", config.ConfigFileUsed(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down, flushing telemetry")
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(flushCtx)
		return nil
	})
	return g.Wait()
}
