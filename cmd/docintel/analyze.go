package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quarterly_intel/pkg/core/embedding"
	"quarterly_intel/pkg/core/ingest"
	"quarterly_intel/pkg/core/qualitative"
	"quarterly_intel/pkg/models"
)

var analyzeQueries string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [transcript files...]",
	Short: "Summarize earnings-call transcripts",
	Long: `Chunks and indexes the transcripts, then reports themes, management
sentiment, forward guidance and risks. Unreadable files are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeQueries, "queries", "", "YAML query set overriding the built-in themes")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := current.cfg

	queries := qualitative.DefaultQuerySet()
	if path := firstNonEmpty(analyzeQueries, cfg.Retrieval.QueriesFile); path != "" {
		qs, err := qualitative.LoadQuerySet(path)
		if err != nil {
			return err
		}
		queries = qs
	}
	settings, err := qualitative.SettingsFromConfig(cfg.Retrieval)
	if err != nil {
		return err
	}

	sel := embedding.NewFromConfig(ctx, cfg.Embedding, current.logger, current.recorder)
	defer sel.Close()
	for _, w := range sel.Warnings {
		current.logger.Warn(w)
	}

	analyzer := qualitative.NewAnalyzer(sel.Provider, ingest.NewFileLoader(current.logger), queries, settings)
	analyzer.SetLogger(current.logger)
	analyzer.SetRecorder(current.recorder)

	transcripts := make([]models.TranscriptDescriptor, 0, len(args))
	for _, path := range args {
		transcripts = append(transcripts, models.TranscriptDescriptor{
			Name:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			LocalPath: path,
		})
	}
	return printJSON(cmd, analyzer.Analyze(ctx, transcripts))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
