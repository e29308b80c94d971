package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"quarterly_intel/pkg/core/pipeline"
)

var runManifest string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline from a manifest",
	Long: `Reads a YAML manifest naming a ticker, its reports and its transcripts,
runs extraction, enrichment and transcript analysis, stores the run and
prints the resulting insights.

Relative paths in the manifest are resolved against the manifest's directory.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&runManifest, "manifest", "m", "", "path to the run manifest (required)")
	_ = runCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	req, err := loadManifest(runManifest)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	components, err := pipeline.Build(ctx, current.cfg, current.logger, current.recorder)
	if err != nil {
		return err
	}
	defer components.Close()

	insights, err := components.Orchestrator(current.logger).Run(ctx, req)
	if err != nil {
		if insights == nil {
			return err
		}
		current.logger.Warn("run finished but was not stored", zap.Error(err))
	}
	return printJSON(cmd, insights)
}

func loadManifest(path string) (pipeline.Request, error) {
	var req pipeline.Request
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range req.Reports {
		req.Reports[i].LocalPath = resolve(base, req.Reports[i].LocalPath)
	}
	for i := range req.Transcripts {
		req.Transcripts[i].LocalPath = resolve(base, req.Transcripts[i].LocalPath)
	}
	return req, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
