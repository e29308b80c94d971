package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quarterly_intel/pkg/core/extract"
	"quarterly_intel/pkg/models"
)

var extractWorkers int

var extractCmd = &cobra.Command{
	Use:   "extract [report files...]",
	Short: "Extract metrics from quarterly reports",
	Long: `Runs the table, text and OCR extraction cascade over each report and
prints one extraction result per file, in argument order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVarP(&extractWorkers, "workers", "w", 0, "documents processed in parallel (default: config)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cascade := extract.NewDefaultCascade(current.cfg.Extraction, current.logger)
	cascade.SetRecorder(current.recorder)
	if extractWorkers > 0 {
		cascade.SetWorkers(extractWorkers)
	}

	reports := make([]models.ReportDescriptor, 0, len(args))
	for _, path := range args {
		reports = append(reports, models.ReportDescriptor{
			Name:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			LocalPath: path,
		})
	}
	return printJSON(cmd, cascade.ExtractBatch(cmd.Context(), reports))
}
