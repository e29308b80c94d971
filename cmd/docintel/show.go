package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"quarterly_intel/pkg/core/store"
)

var showTicker string

var showCmd = &cobra.Command{
	Use:   "show [request-id]",
	Short: "Print a stored run, or list the runs of a ticker",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showTicker, "ticker", "", "list stored runs for this ticker, newest first")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	runs, closeRuns, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeRuns()

	if len(args) == 0 {
		if showTicker == "" {
			return errors.New("show needs a request id or --ticker")
		}
		listed, err := runs.ListRuns(ctx, showTicker)
		if err != nil {
			return err
		}
		return printJSON(cmd, listed)
	}

	insights, err := runs.LoadRun(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, insights)
}

// openCatalog picks Postgres when DATABASE_URL is set and the file store otherwise.
func openCatalog(ctx context.Context) (store.RunCatalog, func(), error) {
	cfg := current.cfg.Store
	if cfg.DatabaseURL != "" {
		pool, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRunRepo(pool), pool.Close, nil
	}
	files, err := store.NewFileStore(cfg.FileDir)
	if err != nil {
		return nil, nil, err
	}
	return files, func() {}, nil
}
