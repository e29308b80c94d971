// Package pipeline runs one request end to end: extraction of every report,
// enrichment with prior-period context, transcript analysis and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quarterly_intel/pkg/core/extract"
	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/store"
	"quarterly_intel/pkg/core/validate"
	"quarterly_intel/pkg/models"
)

// ErrEmptyRequest is returned for a request with no reports and no transcripts.
var ErrEmptyRequest = errors.New("request has no reports or transcripts")

// Request is one unit of work, also the shape of a run manifest.
type Request struct {
	Ticker      string                        `json:"ticker" yaml:"ticker"`
	Reports     []models.ReportDescriptor     `json:"reports" yaml:"reports"`
	Transcripts []models.TranscriptDescriptor `json:"transcripts" yaml:"transcripts"`
}

type Extractor interface {
	ExtractBatch(ctx context.Context, reports []models.ReportDescriptor) []models.ExtractionResult
}

// TextReader supplies the linear text of a report for enrichment and
// free-text highlights.
type TextReader interface {
	ReadText(ctx context.Context, doc extract.Document) (string, error)
}

type MetricEnricher interface {
	Enrich(ctx context.Context, current map[string]models.Metric, documentText string, previous map[string]float64) models.EnrichmentResult
}

type TranscriptAnalyzer interface {
	AnalyzeWithChunks(ctx context.Context, transcripts []models.TranscriptDescriptor) (models.QualitativeSummary, []models.Chunk)
}

// ChunkSink archives indexed transcript chunks.
type ChunkSink interface {
	SaveChunks(ctx context.Context, requestID string, chunks []models.Chunk) error
}

// Orchestrator wires the document intelligence components together.
// Store and chunk sink are optional.
type Orchestrator struct {
	extractor Extractor
	texts     TextReader
	enricher  MetricEnricher
	analyzer  TranscriptAnalyzer
	runs      store.RunStore
	chunks    ChunkSink
	checks    validate.Config
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewOrchestrator(extractor Extractor, texts TextReader, enricher MetricEnricher, analyzer TranscriptAnalyzer) (*Orchestrator, error) {
	if extractor == nil || texts == nil || enricher == nil || analyzer == nil {
		return nil, fmt.Errorf("orchestrator needs extractor, text reader, enricher and analyzer")
	}
	return &Orchestrator{
		extractor: extractor,
		texts:     texts,
		enricher:  enricher,
		analyzer:  analyzer,
		checks:    validate.DefaultConfig(),
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

func (o *Orchestrator) SetStore(runs store.RunStore) { o.runs = runs }
func (o *Orchestrator) SetChunkSink(sink ChunkSink)  { o.chunks = sink }
func (o *Orchestrator) SetLogger(l *zap.Logger)      { o.logger = logging.OrNop(l) }

// Run processes req. Component failures are recorded in the returned
// insights; an error is returned only for an empty request or when saving the
// finished run fails, in which case the insights are still returned.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*models.DocumentInsights, error) {
	if len(req.Reports) == 0 && len(req.Transcripts) == 0 {
		return nil, ErrEmptyRequest
	}

	requestID := o.newID()
	log := o.logger.With(zap.String("request_id", requestID), zap.String("ticker", req.Ticker))
	start := o.now()
	log.Info("pipeline started",
		zap.Int("reports", len(req.Reports)),
		zap.Int("transcripts", len(req.Transcripts)))

	if o.runs != nil {
		if err := o.runs.StartRun(ctx, requestID, req.Ticker); err != nil {
			log.Warn("failed to record run start", zap.Error(err))
		}
	}

	results := o.extractor.ExtractBatch(ctx, req.Reports)
	previous := previousPeriods(req.Reports, results)

	reports := make([]models.ReportInsight, 0, len(results))
	for i, res := range results {
		reports = append(reports, o.enrichReport(ctx, log, requestID, res, previous[i]))
	}

	qualitative := models.InsufficientDataSummary()
	if len(req.Transcripts) > 0 {
		var chunks []models.Chunk
		qualitative, chunks = o.analyzer.AnalyzeWithChunks(ctx, req.Transcripts)
		o.event(ctx, log, requestID, "qualitative", map[string]interface{}{
			"themes":    len(qualitative.Themes),
			"sentiment": qualitative.Sentiment.Summary,
			"chunks":    len(chunks),
		})
		if o.chunks != nil && len(chunks) > 0 {
			if err := o.chunks.SaveChunks(ctx, requestID, chunks); err != nil {
				log.Warn("failed to archive transcript chunks", zap.Error(err))
			}
		}
	}

	insights := &models.DocumentInsights{
		RequestID:   requestID,
		Ticker:      req.Ticker,
		GeneratedAt: o.now().UTC(),
		Reports:     reports,
		Qualitative: qualitative,
	}

	if o.runs != nil {
		if err := o.runs.SaveRun(ctx, insights); err != nil {
			return insights, fmt.Errorf("storage failed: %w", err)
		}
	}
	log.Info("pipeline completed", zap.Duration("elapsed", o.now().Sub(start)))
	return insights, nil
}

func (o *Orchestrator) enrichReport(ctx context.Context, log *zap.Logger, requestID string, res models.ExtractionResult, previous map[string]float64) models.ReportInsight {
	insight := models.ReportInsight{Extraction: res}
	o.event(ctx, log, requestID, "extraction", map[string]interface{}{
		"report":        res.DocMeta.Name,
		"metrics_count": res.MetricsCount,
		"error":         res.Error,
	})

	if res.Error != "" {
		insight.Enrichment = models.EnrichmentResult{
			Status:  models.EnrichmentFallback,
			Metrics: map[string]models.Metric{},
			Notes:   "extraction failed: " + res.Error,
		}
		return insight
	}

	text, err := o.texts.ReadText(ctx, extract.NewDocument(res.DocMeta.LocalPath))
	if err != nil {
		log.Debug("no report text for enrichment", zap.String("report", res.DocMeta.Name), zap.Error(err))
		text = ""
	}
	if text != "" {
		if highlights := extract.ExtractFromText(text); len(highlights) > 0 {
			insight.TextHighlights = highlights
		}
	}

	insight.Enrichment = o.enricher.Enrich(ctx, res.Metrics, text, previous)

	checked := insight.Enrichment.Metrics
	if len(checked) == 0 {
		checked = res.Metrics
	}
	report := validate.Metrics(checked, o.checks)
	insight.Validation = &report
	for _, c := range report.Checks {
		if !c.Passed {
			log.Warn("validation check failed",
				zap.String("report", res.DocMeta.Name),
				zap.String("check", c.Name),
				zap.String("detail", c.Message))
		}
	}
	o.event(ctx, log, requestID, "enrichment", map[string]interface{}{
		"report":     res.DocMeta.Name,
		"status":     insight.Enrichment.Status,
		"notes":      insight.Enrichment.Notes,
		"validation": report.FailedChecks,
	})
	return insight
}

func (o *Orchestrator) event(ctx context.Context, log *zap.Logger, requestID, kind string, payload interface{}) {
	if o.runs == nil {
		return
	}
	if err := o.runs.LogEvent(ctx, requestID, kind, payload); err != nil {
		log.Warn("failed to log event", zap.String("kind", kind), zap.Error(err))
	}
}

// previousPeriods pairs each report with the metric values of the report
// immediately before it in (year, quarter) order. Reports without a year and
// quarter, or whose predecessor failed extraction, get nil.
func previousPeriods(reports []models.ReportDescriptor, results []models.ExtractionResult) []map[string]float64 {
	out := make([]map[string]float64, len(results))

	var dated []int
	for i := range results {
		if i < len(reports) && reports[i].Year != nil && reports[i].Quarter != nil {
			dated = append(dated, i)
		}
	}
	sort.SliceStable(dated, func(a, b int) bool {
		ra, rb := reports[dated[a]], reports[dated[b]]
		if *ra.Year != *rb.Year {
			return *ra.Year < *rb.Year
		}
		return *ra.Quarter < *rb.Quarter
	})

	for k := 1; k < len(dated); k++ {
		prev := results[dated[k-1]]
		if prev.Error != "" || len(prev.Metrics) == 0 {
			continue
		}
		values := make(map[string]float64, len(prev.Metrics))
		for key, m := range prev.Metrics {
			values[key] = m.Value
		}
		out[dated[k]] = values
	}
	return out
}
