// Package enrich validates extracted metrics with an LLM and derives the
// ones that can be computed, falling back to deterministic rules when the
// model is absent, fails or answers with something that is not JSON.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"quarterly_intel/pkg/core/config"
	"quarterly_intel/pkg/core/llm"
	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/metrics"
	"quarterly_intel/pkg/core/numparse"
	"quarterly_intel/pkg/core/prompt"
	"quarterly_intel/pkg/core/utils"
	"quarterly_intel/pkg/core/validate"
	"quarterly_intel/pkg/models"
)

const fallbackNote = "LLM unavailable or returned non-JSON; used deterministic enrichment"

type Enricher struct {
	provider llm.Provider
	prompts  *prompt.Registry
	cfg      config.EnrichmentConfig
	logger   *zap.Logger
	recorder *metrics.Recorder
}

// New returns an Enricher. A nil provider always takes the fallback path;
// a nil registry uses the built-in prompts.
func New(provider llm.Provider, prompts *prompt.Registry, cfg config.EnrichmentConfig) *Enricher {
	if prompts == nil {
		prompts = prompt.NewDefaultRegistry()
	}
	if cfg.LLMConfidence <= 0 {
		cfg.LLMConfidence = 0.5
	}
	if cfg.DerivedConfidence <= 0 {
		cfg.DerivedConfidence = 0.5
	}
	if cfg.BestEffortConfidence <= 0 {
		cfg.BestEffortConfidence = 0.4
	}
	if cfg.PromptTextChars <= 0 {
		cfg.PromptTextChars = 4000
	}
	return &Enricher{provider: provider, prompts: prompts, cfg: cfg, logger: zap.NewNop()}
}

func (e *Enricher) SetLogger(l *zap.Logger)         { e.logger = logging.OrNop(l) }
func (e *Enricher) SetRecorder(r *metrics.Recorder) { e.recorder = r }

// Enrich never fails: any LLM problem is reported through Status and Notes.
// previous holds prior-period values by metric key and only feeds the fallback.
func (e *Enricher) Enrich(ctx context.Context, current map[string]models.Metric, documentText string, previous map[string]float64) models.EnrichmentResult {
	result, err := e.llmPass(ctx, current, documentText)
	if err == nil {
		e.recorder.Enrichment(string(models.EnrichmentOK))
		return result
	}

	e.logger.Info("llm enrichment unavailable, using fallback", zap.Error(err))
	out := Fallback(current, previous, e.cfg)
	out.Notes = fmt.Sprintf("%s (%v)", fallbackNote, err)
	e.recorder.Enrichment(string(models.EnrichmentFallback))
	return out
}

func (e *Enricher) llmPass(ctx context.Context, current map[string]models.Metric, documentText string) (models.EnrichmentResult, error) {
	if e.provider == nil {
		return models.EnrichmentResult{}, fmt.Errorf("%w: no provider configured", llm.ErrProviderUnavailable)
	}

	metricsJSON, err := json.Marshal(current)
	if err != nil {
		return models.EnrichmentResult{}, fmt.Errorf("%w: %v", models.ErrEnrichmentFailure, err)
	}
	system, user, err := e.prompts.Render(prompt.EnrichmentPromptID, prompt.Vars{
		"MetricsJSON": string(metricsJSON),
		"ReportText":  truncateRunes(documentText, e.cfg.PromptTextChars),
	})
	if err != nil {
		return models.EnrichmentResult{}, fmt.Errorf("%w: %v", models.ErrEnrichmentFailure, err)
	}

	raw, err := e.provider.Complete(ctx, llm.Request{
		System:      system,
		Prompt:      user,
		JSON:        true,
		Temperature: llm.Temperature(0.1),
	})
	if err != nil {
		return models.EnrichmentResult{}, fmt.Errorf("%w: %v", models.ErrEnrichmentFailure, err)
	}

	var parsed map[string]interface{}
	if _, err := utils.DecodeLLMJSON(raw, &parsed); err != nil {
		return models.EnrichmentResult{}, fmt.Errorf("%w: %v", models.ErrEnrichmentFailure, err)
	}
	return e.merge(current, parsed), nil
}

// merge adds LLM keys that are not yet present. Existing keys keep their
// extracted value; differing LLM values become suggestions.
func (e *Enricher) merge(current map[string]models.Metric, parsed map[string]interface{}) models.EnrichmentResult {
	out := models.EnrichmentResult{
		Status:  models.EnrichmentOK,
		Metrics: copyMetrics(current),
	}
	if notes, ok := parsed["notes"].(string); ok {
		out.Notes = notes
	}

	for _, key := range sortedKeys(parsed) {
		if key == "notes" {
			continue
		}
		value, ok := numeric(parsed[key])
		if !ok {
			continue
		}
		if existing, ok := out.Metrics[key]; ok {
			if math.Abs(existing.Value-value) > 1e-9 {
				out.Suggestions = append(out.Suggestions, models.Suggestion{
					Key:          key,
					Value:        value,
					CurrentValue: existing.Value,
					Source:       models.MethodLLM,
				})
			}
			continue
		}
		out.Metrics[key] = models.Metric{
			Key:          key,
			Value:        value,
			Unit:         unitFor(key),
			Confidence:   e.cfg.LLMConfidence,
			SourceMethod: models.MethodDerived,
		}
	}
	return out
}

// Fallback applies the deterministic enrichments: operating margin from
// operating profit and revenue, and quarter-on-quarter change for every key
// with a non-zero prior value. Input metrics without a confidence get the
// best-effort confidence.
func Fallback(current map[string]models.Metric, previous map[string]float64, cfg config.EnrichmentConfig) models.EnrichmentResult {
	enriched := copyMetrics(current)
	for k, m := range enriched {
		if m.Confidence == 0 {
			m.Confidence = cfg.BestEffortConfidence
			enriched[k] = m
		}
	}

	if _, ok := enriched[models.KeyOperatingMargin]; !ok {
		op, hasOp := enriched[models.KeyOperatingProfit]
		rev, hasRev := enriched[models.KeyTotalRevenue]
		if hasOp && hasRev && rev.Value != 0 {
			enriched[models.KeyOperatingMargin] = derived(models.KeyOperatingMargin, op.Value/rev.Value*100, cfg.DerivedConfidence)
		}
	}

	prevKeys := make([]string, 0, len(previous))
	for k := range previous {
		prevKeys = append(prevKeys, k)
	}
	sort.Strings(prevKeys)
	for _, key := range prevKeys {
		prev := previous[key]
		cur, ok := current[key]
		if !ok {
			continue
		}
		pct, ok := validate.PercentChange(cur.Value, prev)
		if !ok {
			continue
		}
		qoqKey := key + "_qoq_pct"
		if _, exists := enriched[qoqKey]; exists {
			continue
		}
		enriched[qoqKey] = derived(qoqKey, pct, cfg.DerivedConfidence)
	}

	return models.EnrichmentResult{
		Status:  models.EnrichmentFallback,
		Metrics: enriched,
		Notes:   fallbackNote,
	}
}

func derived(key string, value, confidence float64) models.Metric {
	return models.Metric{
		Key:          key,
		Value:        value,
		Unit:         models.UnitPercent,
		Confidence:   confidence,
		SourceMethod: models.MethodDerived,
	}
}

// numeric accepts numbers, numeric strings ("1,234.5 Cr") and {"value": n} objects.
func numeric(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		if p := numparse.Parse(t); p != nil {
			return *p, true
		}
	case map[string]interface{}:
		return numeric(t["value"])
	}
	return 0, false
}

func unitFor(key string) models.Unit {
	switch {
	case strings.HasSuffix(key, "_margin"), strings.HasSuffix(key, "_pct"), key == "roe":
		return models.UnitPercent
	case key == "debt_to_equity":
		return models.UnitRatio
	}
	return models.UnitINRCrore
}

func copyMetrics(in map[string]models.Metric) map[string]models.Metric {
	out := make(map[string]models.Metric, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
