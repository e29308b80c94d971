package labels

import (
	"regexp"
	"strings"

	"quarterly_intel/pkg/models"
)

var (
	patWord = regexp.MustCompile(`\bpat\b`)
	epsWord = regexp.MustCompile(`\beps\b`)
)

var tableKeywords = []string{
	"revenue", "profit", "income", "ebitda", "ebit",
	"margin", "earnings", "eps", "pat", "sales",
}

// Normalize maps a free-text label to a canonical metric key.
// Rules run in a fixed order and the first match wins; ok is false when no rule matches.
func Normalize(label string) (key string, ok bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return "", false
	}

	has := func(s string) bool { return strings.Contains(l, s) }

	switch {
	case has("revenue") || has("sales"):
		return models.KeyTotalRevenue, true
	case (has("net") && has("profit")) || patWord.MatchString(l) || has("profit after tax"):
		return models.KeyNetProfit, true
	// "ebit" only as the whole label; "EBIT Margin" is a percentage.
	case (has("operating") && (has("profit") || has("income"))) || l == "ebit":
		return models.KeyOperatingProfit, true
	case has("ebitda"):
		return models.KeyEBITDA, true
	case epsWord.MatchString(l) || has("earnings per share"):
		return models.KeyEPS, true
	case has("operating") && has("margin"):
		return models.KeyOperatingMargin, true
	}
	return "", false
}

// IsFinancialLabel reports whether a table cell looks like a metric label.
// It is a loose keyword detector; Normalize decides what is kept.
func IsFinancialLabel(cell string) bool {
	if len(cell) < 3 {
		return false
	}
	l := strings.ToLower(cell)
	for _, kw := range tableKeywords {
		if strings.Contains(l, kw) {
			return true
		}
	}
	return false
}

// UnitFor returns the unit a canonical key is reported in.
func UnitFor(key string) models.Unit {
	if key == models.KeyOperatingMargin {
		return models.UnitPercent
	}
	return models.UnitINRCrore
}
