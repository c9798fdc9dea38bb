package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tart-proj/codescholar"
	"github.com/tart-proj/codescholar/internal/log"
)

func ingestCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "ingest MANIFEST",
		Short: "Load a dataset manifest into the corpus",
		Long: `Load a dataset manifest into the corpus.

The manifest is a YAML file naming the dataset and its programs, each with
source text and a dependence graph of nodes and edges.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(envFile, args[0])
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runIngest(envFile, manifest string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	opts := append(clientOptions(cfg), codescholar.WithLogger(logger.Slog()))

	client, err := codescholar.New(opts...)
	if err != nil {
		return fmt.Errorf("create codescholar client: %w", err)
	}
	defer func() { _ = client.Close() }()

	n, err := client.IngestManifest(context.Background(), manifest)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Printf("ingested %d programs from %s\n", n, manifest)
	return nil
}
