package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tart-proj/codescholar"
	"github.com/tart-proj/codescholar/internal/log"
	"github.com/tart-proj/codescholar/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This allows AI assistants to mine and browse API usage idioms.
Configuration is loaded from environment variables and .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Logger writes to stderr; stdout carries the MCP protocol.
	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	slogger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
	)

	opts := append(clientOptions(cfg), codescholar.WithLogger(slogger))

	client, err := codescholar.New(opts...)
	if err != nil {
		return fmt.Errorf("create codescholar client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close codescholar client", slog.Any("error", err))
		}
	}()

	mcpServer := mcp.NewServer(client.Search, client.Idioms, version, slogger)

	return mcpServer.ServeStdio()
}
