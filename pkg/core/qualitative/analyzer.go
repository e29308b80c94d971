// Package qualitative turns earnings-call transcripts into theme, sentiment,
// forward guidance and risk signals using nearest-neighbour retrieval.
package qualitative

import (
	"context"
	"math"

	"go.uber.org/zap"

	"quarterly_intel/pkg/core/config"
	"quarterly_intel/pkg/core/embedding"
	"quarterly_intel/pkg/core/ingest"
	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/metrics"
	"quarterly_intel/pkg/core/retrieval"
	"quarterly_intel/pkg/models"
)

const maxExamples = 3

// Settings tune retrieval depth and chunking.
type Settings struct {
	ChunkWords    int
	SnippetChars  int
	ThemeTopK     int
	SentimentTopK int
	GuidanceTopK  int
	IndexKind     retrieval.Kind
}

func DefaultSettings() Settings {
	return Settings{
		ChunkWords:    retrieval.DefaultChunkWords,
		SnippetChars:  retrieval.DefaultSnippetChars,
		ThemeTopK:     5,
		SentimentTopK: 3,
		GuidanceTopK:  5,
		IndexKind:     retrieval.KindFlat,
	}
}

// SettingsFromConfig maps retrieval config onto Settings, keeping defaults
// for unset values.
func SettingsFromConfig(cfg config.RetrievalConfig) (Settings, error) {
	s := DefaultSettings()
	kind, err := retrieval.ParseKind(cfg.IndexKind)
	if err != nil {
		return s, err
	}
	s.IndexKind = kind
	if cfg.ChunkWords > 0 {
		s.ChunkWords = cfg.ChunkWords
	}
	if cfg.SnippetChars > 0 {
		s.SnippetChars = cfg.SnippetChars
	}
	if cfg.ThemeTopK > 0 {
		s.ThemeTopK = cfg.ThemeTopK
	}
	if cfg.SentimentTopK > 0 {
		s.SentimentTopK = cfg.SentimentTopK
	}
	if cfg.GuidanceTopK > 0 {
		s.GuidanceTopK = cfg.GuidanceTopK
	}
	return s, nil
}

// Analyzer builds a fresh index for every Analyze call. The embedder may be
// nil, in which case every call yields the insufficient-data summary.
type Analyzer struct {
	embedder embedding.Provider
	loader   ingest.TranscriptLoader
	queries  QuerySet
	settings Settings
	logger   *zap.Logger
	recorder *metrics.Recorder
}

func NewAnalyzer(embedder embedding.Provider, loader ingest.TranscriptLoader, queries QuerySet, settings Settings) *Analyzer {
	if loader == nil {
		loader = ingest.NewFileLoader(nil)
	}
	return &Analyzer{
		embedder: embedder,
		loader:   loader,
		queries:  queries,
		settings: settings,
		logger:   zap.NewNop(),
	}
}

func (a *Analyzer) SetLogger(l *zap.Logger)         { a.logger = logging.OrNop(l) }
func (a *Analyzer) SetRecorder(r *metrics.Recorder) { a.recorder = r }

// Analyze reads the transcripts, skipping unreadable ones, and summarizes them.
func (a *Analyzer) Analyze(ctx context.Context, transcripts []models.TranscriptDescriptor) models.QualitativeSummary {
	summary, _ := a.AnalyzeWithChunks(ctx, transcripts)
	return summary
}

// AnalyzeWithChunks is Analyze that also returns the indexed chunks with
// their embeddings, for archiving. The chunk list is nil when no index was built.
func (a *Analyzer) AnalyzeWithChunks(ctx context.Context, transcripts []models.TranscriptDescriptor) (models.QualitativeSummary, []models.Chunk) {
	var chunks []models.Chunk
	for _, t := range transcripts {
		text, err := a.loader.Load(ctx, t)
		if err != nil {
			a.logger.Warn("skipping transcript", zap.String("transcript", t.Name), zap.Error(err))
			continue
		}
		chunks = append(chunks, retrieval.ChunkTranscript(t.Name, text, a.settings.ChunkWords)...)
	}
	return a.analyze(ctx, chunks)
}

// AnalyzeChunks summarizes already chunked text.
func (a *Analyzer) AnalyzeChunks(ctx context.Context, chunks []models.Chunk) models.QualitativeSummary {
	summary, _ := a.analyze(ctx, chunks)
	return summary
}

func (a *Analyzer) analyze(ctx context.Context, chunks []models.Chunk) (models.QualitativeSummary, []models.Chunk) {
	if a.embedder == nil {
		a.logger.Warn("no embedder configured, qualitative analysis skipped")
		return models.InsufficientDataSummary(), nil
	}
	r, err := retrieval.Build(ctx, chunks, a.embedder, retrieval.Options{
		Kind:         a.settings.IndexKind,
		SnippetChars: a.settings.SnippetChars,
		Logger:       a.logger,
		Recorder:     a.recorder,
	})
	if err != nil {
		a.logger.Warn("no index built", zap.Error(err))
		return models.InsufficientDataSummary(), nil
	}
	a.logger.Info("transcript index built",
		zap.Int("chunks", len(chunks)),
		zap.String("index", string(r.Kind())),
		zap.String("embedder", a.embedder.Name()))

	themes := a.themes(ctx, r)
	return models.QualitativeSummary{
		Themes:          themes,
		Sentiment:       a.sentiment(ctx, r),
		ForwardGuidance: r.Retrieve(ctx, a.queries.Guidance, a.settings.GuidanceTopK),
		Risks:           a.risks(themes),
	}, r.Chunks()
}

func (a *Analyzer) themes(ctx context.Context, r *retrieval.Retriever) []models.ThemeResult {
	out := []models.ThemeResult{}
	for _, th := range a.queries.Themes {
		hits := r.Retrieve(ctx, th.Query, a.settings.ThemeTopK)
		if len(hits) == 0 {
			continue
		}
		out = append(out, models.ThemeResult{
			Theme:    th.Name,
			Count:    len(hits),
			Examples: hits[:min(maxExamples, len(hits))],
		})
	}
	return out
}

func (a *Analyzer) sentiment(ctx context.Context, r *retrieval.Retriever) models.Sentiment {
	var pos, neg int
	for _, q := range a.queries.Positive {
		pos += len(r.Retrieve(ctx, q, a.settings.SentimentTopK))
	}
	for _, q := range a.queries.Negative {
		neg += len(r.Retrieve(ctx, q, a.settings.SentimentTopK))
	}
	return ScoreSentiment(pos, neg)
}

// ScoreSentiment converts positive and negative hit counts into a bounded
// score in [-0.8, 0.8] and a label.
func ScoreSentiment(pos, neg int) models.Sentiment {
	total := float64(max(pos+neg, 1))
	switch {
	case pos > neg:
		score := math.Min(0.8, float64(pos)/total)
		label := models.SentimentCautiouslyOptimistic
		if score > 0.6 {
			label = models.SentimentPositive
		}
		return models.Sentiment{Score: score, Summary: label}
	case neg > pos:
		score := -math.Min(0.8, float64(neg)/total)
		label := models.SentimentCautious
		if score < -0.6 {
			label = models.SentimentNegative
		}
		return models.Sentiment{Score: score, Summary: label}
	}
	return models.Sentiment{Score: 0, Summary: models.SentimentNeutral}
}

func (a *Analyzer) risks(themes []models.ThemeResult) []models.Risk {
	byName := make(map[string]models.ThemeResult, len(themes))
	for _, th := range themes {
		byName[th.Theme] = th
	}
	out := []models.Risk{}
	for _, name := range a.queries.Risks {
		th, ok := byName[name]
		if !ok || th.Count == 0 {
			continue
		}
		evidence := make([]string, 0, len(th.Examples))
		for _, ex := range th.Examples {
			evidence = append(evidence, ex.ChunkID)
		}
		out = append(out, models.Risk{Name: name, Evidence: evidence})
	}
	return out
}
