package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quarterly_intel/pkg/core/config"
	"quarterly_intel/pkg/core/llm"
	"quarterly_intel/pkg/core/metrics"
	"quarterly_intel/pkg/models"
)

type stubProvider struct {
	reply      string
	err        error
	lastPrompt string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.lastPrompt = req.Prompt
	return s.reply, s.err
}

func metric(key string, value, confidence float64, method models.Method) models.Metric {
	return models.Metric{Key: key, Value: value, Unit: models.UnitINRCrore, Confidence: confidence, SourceMethod: method}
}

func extracted() map[string]models.Metric {
	return map[string]models.Metric{
		models.KeyTotalRevenue:    metric(models.KeyTotalRevenue, 1000, 0.85, models.MethodTable),
		models.KeyOperatingProfit: metric(models.KeyOperatingProfit, 250, 0.65, models.MethodText),
	}
}

func enrichCfg() config.EnrichmentConfig {
	return config.Default().Enrichment
}

func TestEnrich_LLMAddsNewKeysOnly(t *testing.T) {
	p := &stubProvider{reply: "```json\n{\"total_revenue\": 1010, \"operating_profit\": 250, \"ebitda\": \"300\", \"operating_margin\": 25, \"notes\": \"computed margin\"}\n```"}
	e := New(p, nil, enrichCfg())

	res := e.Enrich(context.Background(), extracted(), "Revenue 1,000 Cr", nil)

	assert.Equal(t, models.EnrichmentOK, res.Status)
	assert.Equal(t, "computed margin", res.Notes)

	rev := res.Metrics[models.KeyTotalRevenue]
	assert.Equal(t, 1000.0, rev.Value)
	assert.Equal(t, models.MethodTable, rev.SourceMethod)

	ebitda := res.Metrics[models.KeyEBITDA]
	assert.Equal(t, 300.0, ebitda.Value)
	assert.Equal(t, models.MethodDerived, ebitda.SourceMethod)
	assert.Equal(t, 0.5, ebitda.Confidence)
	assert.Equal(t, models.UnitINRCrore, ebitda.Unit)

	assert.Equal(t, models.UnitPercent, res.Metrics[models.KeyOperatingMargin].Unit)

	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, models.Suggestion{Key: models.KeyTotalRevenue, Value: 1010, CurrentValue: 1000, Source: models.MethodLLM}, res.Suggestions[0])
}

func TestEnrich_PromptCarriesMetricsAndTruncatedText(t *testing.T) {
	p := &stubProvider{reply: `{}`}
	e := New(p, nil, enrichCfg())

	text := strings.Repeat("a", 4000) + "TAIL"
	res := e.Enrich(context.Background(), extracted(), text, nil)

	assert.Equal(t, models.EnrichmentOK, res.Status)
	assert.Contains(t, p.lastPrompt, `"total_revenue"`)
	assert.NotContains(t, p.lastPrompt, "TAIL")
}

func TestEnrich_FallbackWhenNoProvider(t *testing.T) {
	e := New(nil, nil, enrichCfg())
	res := e.Enrich(context.Background(), extracted(), "", nil)

	assert.Equal(t, models.EnrichmentFallback, res.Status)
	margin, ok := res.Metrics[models.KeyOperatingMargin]
	require.True(t, ok)
	assert.Equal(t, 25.0, margin.Value)
	assert.Equal(t, 0.5, margin.Confidence)
	assert.Equal(t, models.MethodDerived, margin.SourceMethod)
	assert.Contains(t, res.Notes, "deterministic")
}

func TestEnrich_FallbackOnProviderErrorAndBadJSON(t *testing.T) {
	for name, p := range map[string]*stubProvider{
		"error":    {err: errors.New("quota exceeded")},
		"not json": {reply: "I could not find any numbers, sorry."},
	} {
		t.Run(name, func(t *testing.T) {
			rec := metrics.NewRecorder()
			e := New(p, nil, enrichCfg())
			e.SetRecorder(rec)

			res := e.Enrich(context.Background(), extracted(), "text", nil)
			assert.Equal(t, models.EnrichmentFallback, res.Status)
			assert.Contains(t, res.Metrics, models.KeyOperatingMargin)
		})
	}
}

func TestFallback_QoQ(t *testing.T) {
	current := map[string]models.Metric{
		models.KeyTotalRevenue: metric(models.KeyTotalRevenue, 110, 0.85, models.MethodTable),
		models.KeyNetProfit:    metric(models.KeyNetProfit, 9, 0.85, models.MethodTable),
		models.KeyEBITDA:       metric(models.KeyEBITDA, 30, 0.85, models.MethodTable),
	}
	previous := map[string]float64{
		models.KeyTotalRevenue: 100,
		models.KeyNetProfit:    -10,
		models.KeyEBITDA:       0,
		"eps":                  5,
	}

	res := Fallback(current, previous, enrichCfg())

	assert.InDelta(t, 10.0, res.Metrics["total_revenue_qoq_pct"].Value, 1e-9)
	assert.InDelta(t, 190.0, res.Metrics["net_profit_qoq_pct"].Value, 1e-9)
	assert.NotContains(t, res.Metrics, "ebitda_qoq_pct", "zero prior value is skipped")
	assert.NotContains(t, res.Metrics, "eps_qoq_pct", "no current value")
	assert.Equal(t, models.UnitPercent, res.Metrics["total_revenue_qoq_pct"].Unit)
	// no operating profit, so no margin
	assert.NotContains(t, res.Metrics, models.KeyOperatingMargin)
}

func TestFallback_ZeroRevenueAndBestEffortConfidence(t *testing.T) {
	current := map[string]models.Metric{
		models.KeyTotalRevenue:    metric(models.KeyTotalRevenue, 0, 0.85, models.MethodTable),
		models.KeyOperatingProfit: metric(models.KeyOperatingProfit, 10, 0, models.MethodText),
	}
	res := Fallback(current, nil, enrichCfg())

	assert.NotContains(t, res.Metrics, models.KeyOperatingMargin)
	assert.Equal(t, 0.4, res.Metrics[models.KeyOperatingProfit].Confidence)
	assert.Equal(t, 0.85, res.Metrics[models.KeyTotalRevenue].Confidence)
	// input map untouched
	assert.Equal(t, 0.0, current[models.KeyOperatingProfit].Confidence)
}

func TestFallback_KeepsExistingMargin(t *testing.T) {
	current := extracted()
	current[models.KeyOperatingMargin] = models.Metric{Key: models.KeyOperatingMargin, Value: 24, Unit: models.UnitPercent, Confidence: 0.85, SourceMethod: models.MethodTable}

	res := Fallback(current, nil, enrichCfg())
	assert.Equal(t, 24.0, res.Metrics[models.KeyOperatingMargin].Value)
	assert.Equal(t, models.MethodTable, res.Metrics[models.KeyOperatingMargin].SourceMethod)
}

func TestNumeric(t *testing.T) {
	v, ok := numeric(map[string]interface{}{"value": 12.5, "unit": "INR_Cr"})
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = numeric("₹1,234 Cr")
	assert.True(t, ok)
	assert.Equal(t, 1234.0, v)

	_, ok = numeric(true)
	assert.False(t, ok)
}
