package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quarterly_intel/pkg/core/labels"
	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/metrics"
	"quarterly_intel/pkg/models"
)

var (
	// RequiredKeys trigger the text stage when any is missing after the table stage.
	RequiredKeys = []string{models.KeyTotalRevenue, models.KeyNetProfit, models.KeyOperatingProfit, models.KeyEBITDA}
	// CriticalKeys trigger the OCR stage when any is missing after the text stage.
	CriticalKeys = []string{models.KeyTotalRevenue, models.KeyNetProfit}
)

const textHitsLogged = 5

// Backends groups the three extraction methods in priority order.
type Backends struct {
	Table Backend
	Text  Backend
	OCR   Backend
}

// Cascade runs table, text and OCR extraction for one document at a time,
// escalating only while required metrics are missing.
type Cascade struct {
	backends     Backends
	workers      int
	stageTimeout time.Duration
	logger       *zap.Logger
	recorder     *metrics.Recorder
}

func NewCascade(b Backends) (*Cascade, error) {
	if b.Table == nil || b.Text == nil || b.OCR == nil {
		return nil, errors.New("cascade requires table, text and OCR backends")
	}
	return &Cascade{
		backends:     b,
		workers:      runtime.NumCPU(),
		stageTimeout: 2 * time.Minute,
		logger:       zap.NewNop(),
	}, nil
}

func (c *Cascade) SetLogger(l *zap.Logger)         { c.logger = logging.OrNop(l) }
func (c *Cascade) SetRecorder(r *metrics.Recorder) { c.recorder = r }
func (c *Cascade) SetStageTimeout(d time.Duration) { c.stageTimeout = d }
func (c *Cascade) SetWorkers(n int) {
	if n > 0 {
		c.workers = n
	}
}

// ExtractBatch extracts every report on a bounded worker pool.
// Results come back in input order; per-document failures are recorded in
// each result and never abort the batch.
func (c *Cascade) ExtractBatch(ctx context.Context, reports []models.ReportDescriptor) []models.ExtractionResult {
	results := make([]models.ExtractionResult, len(reports))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, report := range reports {
		g.Go(func() error {
			results[i] = c.Extract(ctx, report)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Extract runs the cascade for a single report.
func (c *Cascade) Extract(ctx context.Context, report models.ReportDescriptor) models.ExtractionResult {
	result := models.ExtractionResult{
		DocMeta: report,
		Metrics: make(map[string]models.Metric),
		ExtractionLog: models.ExtractionLog{
			Table: skipped(""),
			Text:  skipped(""),
			OCR:   skipped(""),
		},
	}
	log := c.logger.With(zap.String("document", report.Name), zap.String("path", report.LocalPath))

	if err := checkReadable(report.LocalPath); err != nil {
		log.Warn("document not readable", zap.Error(err))
		result.Error = models.ErrorFileNotFound
		c.recorder.Document(models.ErrorFileNotFound)
		return result
	}
	doc := NewDocument(report.LocalPath)

	// table
	result.ExtractionLog.Table = c.stage(ctx, log, c.backends.Table, doc, result.Metrics, anyKey, -1)

	// text, only for keys still missing from the required set
	missing := missingKeys(result.Metrics, RequiredKeys)
	if len(missing) > 0 {
		allowed := keySet(missing)
		result.ExtractionLog.Text = c.stage(ctx, log, c.backends.Text, doc, result.Metrics,
			func(k string) bool { return allowed[k] }, textHitsLogged)
		result.ExtractionLog.Text.Attempted = true
	} else {
		result.ExtractionLog.Text = skipped("required metrics already extracted")
	}

	// ocr
	if len(missingKeys(result.Metrics, CriticalKeys)) > 0 {
		result.ExtractionLog.OCR = c.stage(ctx, log, c.backends.OCR, doc, result.Metrics, anyKey, -1)
		result.ExtractionLog.OCR.Attempted = true
	} else {
		result.ExtractionLog.OCR = skipped("critical metrics already extracted")
	}

	result.MetricsCount = len(result.Metrics)
	c.recorder.Document("ok")
	log.Info("document extracted",
		zap.Int("metrics_count", result.MetricsCount),
		zap.String("table", string(result.ExtractionLog.Table.Status)),
		zap.String("text", string(result.ExtractionLog.Text.Status)),
		zap.String("ocr", string(result.ExtractionLog.OCR.Status)))
	return result
}

// stage runs one backend and merges its candidates into dst.
// hitLimit < 0 keeps every hit in the log.
func (c *Cascade) stage(ctx context.Context, log *zap.Logger, b Backend, doc Document, dst map[string]models.Metric, allow func(string) bool, hitLimit int) models.MethodAttempt {
	method := b.Method()
	if err := b.Availability(doc); err != nil {
		log.Debug("backend unavailable", zap.String("method", string(method)), zap.Error(err))
		c.recorder.StageAttempt(string(method), string(models.StatusUnavailable), 0)
		return models.MethodAttempt{Status: models.StatusUnavailable, Reason: err.Error(), Hits: []models.RawCandidate{}}
	}

	start := time.Now()
	out := c.run(ctx, b, doc)
	elapsed := time.Since(start)
	c.recorder.StageAttempt(string(method), string(out.Status), elapsed)

	attempt := models.MethodAttempt{
		Attempted:  true,
		Status:     out.Status,
		TextLength: out.TextLength,
		Hits:       []models.RawCandidate{},
	}
	if out.Err != nil {
		attempt.Reason = out.Err.Error()
	}
	if out.Status != models.StatusOK {
		log.Warn("backend did not complete",
			zap.String("method", string(method)),
			zap.String("status", string(out.Status)),
			zap.Error(out.Err))
		return attempt
	}

	attempt.MetricsFound = merge(dst, out.Candidates, method, allow)
	hits := out.Candidates
	if hitLimit >= 0 && len(hits) > hitLimit {
		hits = hits[:hitLimit]
	}
	attempt.Hits = append(attempt.Hits, hits...)

	c.recorder.MetricsExtracted(string(method), attempt.MetricsFound)
	log.Debug("backend finished",
		zap.String("method", string(method)),
		zap.Int("candidates", len(out.Candidates)),
		zap.Int("metrics_found", attempt.MetricsFound),
		zap.Duration("elapsed", elapsed))
	return attempt
}

// run calls the backend under the stage timeout. A panicking backend counts as failed.
func (c *Cascade) run(ctx context.Context, b Backend, doc Document) (out Outcome) {
	if c.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.stageTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			out = Failed(fmt.Errorf("%s backend panic: %v", b.Method(), r))
		}
	}()
	return b.Extract(ctx, doc)
}

// merge inserts normalized candidates whose key is absent and allowed.
// It returns the number of keys added.
func merge(dst map[string]models.Metric, candidates []models.RawCandidate, method models.Method, allow func(string) bool) int {
	added := 0
	for _, cand := range candidates {
		key, ok := labels.Normalize(cand.Label)
		if !ok {
			continue
		}
		if _, exists := dst[key]; exists || !allow(key) {
			continue
		}
		dst[key] = models.Metric{
			Key:          key,
			Value:        cand.Value,
			Unit:         labels.UnitFor(key),
			Confidence:   cand.Confidence,
			SourceMethod: method,
			Label:        cand.Label,
			Page:         cand.Page,
		}
		added++
	}
	return added
}

func checkReadable(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", models.ErrFileNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrFileNotFound, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", models.ErrFileNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrFileNotFound, err)
	}
	return f.Close()
}

func missingKeys(m map[string]models.Metric, keys []string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

func keySet(keys []string) map[string]bool {
	s := make(map[string]bool, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}

func anyKey(string) bool { return true }

func skipped(reason string) models.MethodAttempt {
	return models.MethodAttempt{Status: models.StatusSkipped, Reason: reason, Hits: []models.RawCandidate{}}
}
