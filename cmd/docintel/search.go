package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quarterly_intel/pkg/core/embedding"
	"quarterly_intel/pkg/core/store"
)

var searchTopK int

var searchCmd = &cobra.Command{
	Use:   "search [request-id] [query...]",
	Short: "Search the archived transcript chunks of a run",
	Long: `Embeds the query and returns the closest chunks archived for the run.
Chunks are only archived when a database is configured.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 5, "number of chunks to return")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := current.cfg
	if cfg.Store.DatabaseURL == "" {
		return errors.New("search needs a database (DATABASE_URL)")
	}
	if searchTopK <= 0 {
		return errors.New("--top-k must be positive")
	}

	pool, err := store.Open(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	sel := embedding.NewFromConfig(ctx, cfg.Embedding, current.logger, current.recorder)
	defer sel.Close()

	query := strings.Join(args[1:], " ")
	vectors, err := embedding.EncodeQueries(ctx, sel.Provider, []string{query})
	if err != nil {
		return err
	}

	hits, err := store.NewChunkArchive(pool).Nearest(ctx, args[0], vectors[0], searchTopK)
	if err != nil {
		return err
	}
	current.logger.Debug("chunk search", zap.String("request_id", args[0]), zap.Int("hits", len(hits)))
	return printJSON(cmd, hits)
}
