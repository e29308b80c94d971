package embedding

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"quarterly_intel/pkg/core/config"
	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/metrics"
)

// Selection is the outcome of NewFromConfig.
type Selection struct {
	Provider Provider
	// FellBack is true when the configured backend was unusable and the hash
	// embedder was chosen instead.
	FellBack bool
	Warnings []string
	closers  []io.Closer
}

// Close releases clients held by the selected provider and cache.
func (s *Selection) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

// NewFromConfig is the single place where embedder availability is decided.
// A forced fake, a "hash" backend or a failed probe all yield the hash
// embedder. A reachable Redis URL wraps the result in a cache.
func NewFromConfig(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger, recorder *metrics.Recorder) *Selection {
	logger = logging.OrNop(logger)
	sel := &Selection{}

	hash := NewHashEmbedder(cfg.HashDimension)
	fallBack := func(reason string) {
		sel.Provider = hash
		sel.FellBack = true
		sel.Warnings = append(sel.Warnings, reason)
		logger.Warn("using hash embedder", zap.String("reason", reason))
	}

	switch {
	case cfg.FakeForced():
		sel.Provider = hash
	case cfg.Backend == "hash":
		sel.Provider = hash
	case cfg.Backend == "openai":
		e := NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err := probe(ctx, e, cfg); err != nil {
			fallBack(fmt.Sprintf("openai-compatible embedder %s unreachable: %v", cfg.BaseURL, err))
		} else {
			sel.Provider = e
		}
	case cfg.Backend == "gemini":
		e, err := NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err == nil {
			sel.closers = append(sel.closers, e)
			err = probe(ctx, e, cfg)
		}
		if err != nil {
			fallBack(fmt.Sprintf("gemini embedder unavailable: %v", err))
		} else {
			sel.Provider = e
		}
	default:
		fallBack(fmt.Sprintf("unknown embedding backend %q", cfg.Backend))
	}

	if cfg.RedisURL != "" {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
		store, err := NewRedisStore(probeCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			sel.Warnings = append(sel.Warnings, fmt.Sprintf("embedding cache disabled: %v", err))
			logger.Warn("embedding cache disabled", zap.Error(err))
		} else {
			sel.closers = append(sel.closers, store)
			sel.Provider = NewCached(sel.Provider, store, cfg.CacheTTL, logger, recorder)
		}
	}

	logger.Info("embedding provider selected",
		zap.String("provider", sel.Provider.Name()),
		zap.Bool("fell_back", sel.FellBack))
	return sel
}

// probe encodes a single short text to check reachability and learn the dimension.
func probe(ctx context.Context, p Provider, cfg config.EmbeddingConfig) error {
	if cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ProbeTimeout)
		defer cancel()
	}
	vecs, err := p.Encode(ctx, []string{"ping"})
	if err != nil {
		return err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return ErrEmptyEmbedding
	}
	return nil
}
