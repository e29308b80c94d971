package pipeline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"quarterly_intel/pkg/core/config"
	"quarterly_intel/pkg/core/embedding"
	"quarterly_intel/pkg/core/enrich"
	"quarterly_intel/pkg/core/extract"
	"quarterly_intel/pkg/core/ingest"
	"quarterly_intel/pkg/core/llm"
	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/metrics"
	"quarterly_intel/pkg/core/prompt"
	"quarterly_intel/pkg/core/qualitative"
	"quarterly_intel/pkg/core/retry"
	"quarterly_intel/pkg/core/store"
)

// Components holds everything built from configuration. Close releases
// network clients and the database pool.
type Components struct {
	Cascade      *extract.Cascade
	Text         *extract.TextBackend
	LLM          *llm.Manager
	Enricher     *enrich.Enricher
	Embedding    *embedding.Selection
	Analyzer     *qualitative.Analyzer
	Runs         store.RunStore
	ChunkArchive *store.ChunkArchive

	pool *pgxpool.Pool
}

func (c *Components) Close() {
	if c.Embedding != nil {
		c.Embedding.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

// Build constructs every component from cfg. Optional services that cannot be
// reached (database, embedding server, LLM) are replaced by their fallbacks
// and logged; only invalid configuration is an error.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, recorder *metrics.Recorder) (*Components, error) {
	logger = logging.OrNop(logger)
	c := &Components{}

	c.Cascade = extract.NewDefaultCascade(cfg.Extraction, logger)
	c.Cascade.SetRecorder(recorder)
	c.Text = extract.NewTextBackend(cfg.Extraction.TextMaxPages, cfg.Extraction.WindowChars, cfg.Extraction.TextConfidence, logger)

	c.LLM = llm.NewManager(ctx, cfg.LLM, retry.FromConfig(cfg.Retry, logger), logger)
	logger.Info("LLM enrichment",
		zap.String("provider", c.LLM.Active()),
		zap.Bool("available", c.LLM.Provider() != nil))
	prompts := prompt.NewDefaultRegistry()
	if dir := cfg.Enrichment.PromptsDir; dir != "" {
		n, err := prompt.LoadDir(prompts, dir)
		if err != nil {
			return nil, fmt.Errorf("load prompts: %w", err)
		}
		logger.Info("Loaded prompt overrides", zap.String("dir", dir), zap.Int("count", n))
	}
	c.Enricher = enrich.New(c.LLM.Provider(), prompts, cfg.Enrichment)
	c.Enricher.SetLogger(logger)
	c.Enricher.SetRecorder(recorder)

	c.Embedding = embedding.NewFromConfig(ctx, cfg.Embedding, logger, recorder)
	for _, w := range c.Embedding.Warnings {
		logger.Warn(w)
	}

	queries := qualitative.DefaultQuerySet()
	if cfg.Retrieval.QueriesFile != "" {
		qs, err := qualitative.LoadQuerySet(cfg.Retrieval.QueriesFile)
		if err != nil {
			c.Close()
			return nil, err
		}
		queries = qs
	}
	settings, err := qualitative.SettingsFromConfig(cfg.Retrieval)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Analyzer = qualitative.NewAnalyzer(c.Embedding.Provider, ingest.NewFileLoader(logger), queries, settings)
	c.Analyzer.SetLogger(logger)
	c.Analyzer.SetRecorder(recorder)

	if err := c.openStore(ctx, cfg.Store, logger); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Components) openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) error {
	if cfg.DatabaseURL != "" {
		pool, err := store.Open(ctx, cfg.DatabaseURL)
		if err == nil {
			err = store.EnsureSchema(ctx, pool)
			if err != nil {
				pool.Close()
			}
		}
		if err == nil {
			c.pool = pool
			c.Runs = store.NewRunRepo(pool)
			c.ChunkArchive = store.NewChunkArchive(pool)
			return nil
		}
		logger.Warn("database unavailable, using file store", zap.Error(err))
	}

	files, err := store.NewFileStore(cfg.FileDir)
	if err != nil {
		return fmt.Errorf("no run store available: %w", err)
	}
	c.Runs = files
	return nil
}

// Orchestrator returns an orchestrator over the built components.
func (c *Components) Orchestrator(logger *zap.Logger) *Orchestrator {
	// All four dependencies are set by Build.
	o, _ := NewOrchestrator(c.Cascade, c.Text, c.Enricher, c.Analyzer)
	o.SetLogger(logger)
	o.SetStore(c.Runs)
	if c.ChunkArchive != nil {
		o.SetChunkSink(c.ChunkArchive)
	}
	return o
}
