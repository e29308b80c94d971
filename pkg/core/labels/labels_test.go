package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quarterly_intel/pkg/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Total Revenue", models.KeyTotalRevenue},
		{"Revenue from Operations", models.KeyTotalRevenue},
		{"Net Sales", models.KeyTotalRevenue},
		{"Net Revenue", models.KeyTotalRevenue},
		{"Net Profit", models.KeyNetProfit},
		{"PAT", models.KeyNetProfit},
		{"Profit After Tax", models.KeyNetProfit},
		{"Operating Profit", models.KeyOperatingProfit},
		{"Operating Income", models.KeyOperatingProfit},
		{"EBIT", models.KeyOperatingProfit},
		{"EBITDA", models.KeyEBITDA},
		{"EPS", models.KeyEPS},
		{"Earnings Per Share (₹)", models.KeyEPS},
		{"Operating Margin", models.KeyOperatingMargin},
		{"  ebitda  ", models.KeyEBITDA},
		{" Ebit ", models.KeyOperatingProfit},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			got, ok := Normalize(tc.label)
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalize_Dropped(t *testing.T) {
	for _, label := range []string{"", "Total Assets", "Headcount", "Compatible systems", "Depreciation", "EBIT Margin", "EBIT (excl. other income)"} {
		_, ok := Normalize(label)
		assert.False(t, ok, "label %q should not normalize", label)
	}
}

func TestNormalize_ShortAcronymsNeedWordBoundaries(t *testing.T) {
	// "pat" inside "compatible" and "eps" inside "steps" must not match.
	_, ok := Normalize("steps taken")
	assert.False(t, ok)
	_, ok = Normalize("compatible")
	assert.False(t, ok)
}

func TestIsFinancialLabel(t *testing.T) {
	assert.True(t, IsFinancialLabel("Total Revenue"))
	assert.True(t, IsFinancialLabel("EBITDA"))
	assert.True(t, IsFinancialLabel("Net Sales"))
	assert.False(t, IsFinancialLabel("Q3"))
	assert.False(t, IsFinancialLabel("Particulars"))
	assert.False(t, IsFinancialLabel("59,381"))
}

func TestUnitFor(t *testing.T) {
	assert.Equal(t, models.UnitPercent, UnitFor(models.KeyOperatingMargin))
	assert.Equal(t, models.UnitINRCrore, UnitFor(models.KeyTotalRevenue))
	assert.Equal(t, models.UnitINRCrore, UnitFor(models.KeyEPS))
}
