package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tart-proj/codescholar"
	"github.com/tart-proj/codescholar/internal/log"
)

func searchCmd() *cobra.Command {
	var (
		envFile  string
		dataset  string
		jsonOut  bool
		showHist bool
	)

	cmd := &cobra.Command{
		Use:   "search API [API...]",
		Short: "Mine idioms around a seed API set",
		Long: `Mine idioms around a seed API set and print them ranked best first.

Examples:
  codescholar search np.mean
  codescholar search np.mean np.std --dataset numpy --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(envFile, args, dataset, jsonOut, showHist)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Restrict the search to one corpus dataset")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&showHist, "history", false, "Print the equilibrium measurement per size level")

	return cmd
}

func runSearch(envFile string, seed []string, dataset string, jsonOut, showHist bool) error {
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

	result, err := client.RunSearch(context.Background(), seed, dataset)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if jsonOut {
		type idiomOut struct {
			ID      string   `json:"id"`
			Rank    int      `json:"rank"`
			Size    int      `json:"size"`
			Support int      `json:"support"`
			APIs    []string `json:"apis"`
			Source  string   `json:"source,omitempty"`
		}
		out := make([]idiomOut, 0, len(result.Idioms()))
		for _, idm := range result.Idioms() {
			out = append(out, idiomOut{
				ID:      idm.ID().String(),
				Rank:    idm.Rank(),
				Size:    idm.Size(),
				Support: idm.Support(),
				APIs:    idm.APIs(),
				Source:  idm.Source(),
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("run %s: %d idioms for seed %s",
		result.RunID(), len(result.Idioms()), strings.Join(seed, ", "))
	if result.Converged() {
		fmt.Printf(" (converged at size %d)", result.FinalSize())
	}
	fmt.Println()

	if showHist {
		for _, m := range result.History() {
			fmt.Printf("  size %2d  reusability %.3f  diversity %.3f\n",
				m.Size(), m.Reusability(), m.Diversity())
		}
	}

	for _, idm := range result.Idioms() {
		fmt.Printf("\n#%d  size=%d support=%d  %s\n",
			idm.Rank(), idm.Size(), idm.Support(), strings.Join(idm.APIs(), ", "))
		if src := idm.Source(); src != "" {
			for _, line := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
	}

	return nil
}
