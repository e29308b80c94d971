package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quarterly_intel/pkg/models"
)

func metrics(kv map[string]float64) map[string]models.Metric {
	out := make(map[string]models.Metric, len(kv))
	for k, v := range kv {
		out[k] = models.Metric{Key: k, Value: v}
	}
	return out
}

func TestPercentChange(t *testing.T) {
	pct, ok := PercentChange(110, 100)
	require.True(t, ok)
	assert.InDelta(t, 10, pct, 1e-9)

	pct, ok = PercentChange(-50, -100)
	require.True(t, ok)
	assert.InDelta(t, 50, pct, 1e-9)

	_, ok = PercentChange(5, 0)
	assert.False(t, ok)
}

func TestMetrics_AllPass(t *testing.T) {
	report := Metrics(metrics(map[string]float64{
		models.KeyTotalRevenue:    1000,
		models.KeyNetProfit:       150,
		models.KeyOperatingProfit: 250,
		models.KeyEBITDA:          300,
		models.KeyOperatingMargin: 25.4,
	}), DefaultConfig())

	assert.True(t, report.AllPassed)
	assert.Empty(t, report.FailedChecks)
	assert.Len(t, report.Checks, 5)
}

func TestMetrics_Failures(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]float64
		failed []string
	}{
		{
			name:   "net profit above revenue",
			values: map[string]float64{models.KeyTotalRevenue: 100, models.KeyNetProfit: 120},
			failed: []string{"Net Profit Within Revenue"},
		},
		{
			name:   "ebitda below operating profit",
			values: map[string]float64{models.KeyOperatingProfit: 50, models.KeyEBITDA: 40},
			failed: []string{"EBITDA Covers Operating Profit"},
		},
		{
			name:   "margin disagrees with components",
			values: map[string]float64{models.KeyTotalRevenue: 1000, models.KeyOperatingProfit: 250, models.KeyOperatingMargin: 30},
			failed: []string{"Operating Margin"},
		},
		{
			name:   "margin out of range",
			values: map[string]float64{models.KeyOperatingMargin: 240},
			failed: []string{"Operating Margin Range"},
		},
		{
			name:   "negative revenue",
			values: map[string]float64{models.KeyTotalRevenue: -5},
			failed: []string{"Revenue Positive"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report := Metrics(metrics(tc.values), DefaultConfig())
			assert.False(t, report.AllPassed)
			assert.Equal(t, tc.failed, report.FailedChecks)
			for _, c := range report.Checks {
				if !c.Passed {
					assert.NotEmpty(t, c.Message)
				}
			}
		})
	}
}

func TestMetrics_Empty(t *testing.T) {
	report := Metrics(nil, DefaultConfig())
	assert.True(t, report.AllPassed)
	assert.Empty(t, report.Checks)
}
