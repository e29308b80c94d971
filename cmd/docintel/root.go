package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quarterly_intel/pkg/core/config"
	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/metrics"
)

var (
	configPath  string
	metricsAddr string
	logLevel    string
	logOutput   string
)

// session is the per-invocation state built before any subcommand runs.
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	recorder *metrics.Recorder
	server   *http.Server
}

var current *session

var rootCmd = &cobra.Command{
	Use:   "docintel",
	Short: "Quarterly document intelligence",
	Long: `docintel turns quarterly financial reports into normalized metrics with
per-value confidence and provenance, and summarizes earnings-call transcripts
into themes, management sentiment, forward guidance and risks.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./docintel.yaml)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "stderr", "log destination: stderr, stdout or a file path")
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	cfg.Logging.OutputPath = logOutput
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	s := &session{cfg: cfg, logger: logger, recorder: metrics.NewRecorder()}
	if cfg.Metrics.Addr != "" {
		if err := s.serveMetrics(cfg.Metrics.Addr); err != nil {
			return err
		}
	}
	current = s
	return nil
}

func teardown(*cobra.Command, []string) error {
	if current == nil {
		return nil
	}
	if current.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = current.server.Shutdown(ctx)
	}
	_ = current.logger.Sync()
	current = nil
	return nil
}

func (s *session) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.recorder.Handler())
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
