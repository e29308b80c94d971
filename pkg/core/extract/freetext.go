package extract

import (
	"regexp"
	"strings"

	"quarterly_intel/pkg/core/numparse"
	"quarterly_intel/pkg/models"
)

// FreeTextConfidence is attached to every value found by ExtractFromText.
const FreeTextConfidence = 0.6

type freeTextRule struct {
	key     string
	pattern *regexp.Regexp
	unit    models.Unit
}

// Rules for prose such as press releases, where numbers follow their label
// somewhere later in the sentence.
var freeTextRules = []freeTextRule{
	{"total_revenue", regexp.MustCompile(`(?i)(?:revenue from operations|total income|total revenue|revenue).*?(\d[\d,\.]*)\s*(crore|million|inr|₹)?`), models.UnitINRCrore},
	{"net_profit", regexp.MustCompile(`(?i)(?:net profit|profit after tax|pat).*?(\d[\d,\.]*)\s*(crore|million|inr|₹)?`), models.UnitINRCrore},
	{"operating_margin", regexp.MustCompile(`(?i)(?:operating margin|ebit margin).*?(\d[\d\.]*)\s*%`), models.UnitPercent},
	{"net_profit_margin", regexp.MustCompile(`(?i)(?:net profit margin|profit margin).*?(\d[\d\.]*)\s*%`), models.UnitPercent},
	{"eps", regexp.MustCompile(`(?i)\b(?:eps|earnings per share)\b.*?(\d[\d\.]*)`), models.UnitINRCrore},
	{"ebitda", regexp.MustCompile(`(?i)(?:ebitda|earnings before interest).*?(\d[\d,\.]*)\s*(crore|inr|₹)?`), models.UnitINRCrore},
	{"roe", regexp.MustCompile(`(?i)(?:return on equity|roe).*?(\d[\d\.]*)\s*%`), models.UnitPercent},
	{"free_cash_flow", regexp.MustCompile(`(?i)(?:free cash flow|fcf).*?(\d[\d,\.]*)\s*(crore|inr|₹)?`), models.UnitINRCrore},
	{"debt_to_equity", regexp.MustCompile(`(?i)(?:debt[-\s]*to[-\s]*equity|d/?e).*?(\d[\d\.]*)`), models.UnitRatio},
}

// ExtractFromText pulls headline metrics out of prose with one regex per key.
// Million amounts are converted to crore; percentages and ratios are left as is.
func ExtractFromText(text string) map[string]models.Metric {
	found := make(map[string]models.Metric)
	for _, rule := range freeTextRules {
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := numparse.Parse(m[1])
		if v == nil {
			continue
		}
		value := *v
		if rule.unit == models.UnitINRCrore && len(m) > 2 && strings.EqualFold(m[2], "million") {
			value = numparse.ToCrore(value, "million")
		}
		found[rule.key] = models.Metric{
			Key:          rule.key,
			Value:        value,
			Unit:         rule.unit,
			Confidence:   FreeTextConfidence,
			SourceMethod: models.MethodText,
		}
	}
	return found
}
