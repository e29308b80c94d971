package extract

import (
	"regexp"
	"sync"
	"unicode/utf8"

	"quarterly_intel/pkg/core/numparse"
	"quarterly_intel/pkg/models"
)

// TextLabels are searched, in order, by the text and OCR backends.
var TextLabels = []string{
	"Total Revenue", "Revenue", "Net Revenue",
	"Net Profit", "Profit After Tax", "PAT",
	"Operating Profit", "EBIT", "Operating Income",
	"EBITDA",
	"EPS", "Earnings Per Share",
}

const contextChars = 150

// WindowSearch finds the first case-insensitive occurrence of each label and
// parses a number from the window of windowChars runes starting at the match.
// Million amounts are converted to crore.
func WindowSearch(text string, labels []string, windowChars int, confidence float64) []models.RawCandidate {
	if text == "" {
		return nil
	}
	var out []models.RawCandidate
	for _, label := range labels {
		loc := labelPattern(label).FindStringIndex(text)
		if loc == nil {
			continue
		}
		window := runeWindow(text[loc[0]:], windowChars)
		v, unit := numparse.ParseWithUnit(window)
		if v == nil {
			continue
		}
		out = append(out, models.RawCandidate{
			Label:      label,
			Value:      numparse.ToCrore(*v, unit),
			Unit:       models.UnitINRCrore,
			Confidence: confidence,
			Context:    runeWindow(window, contextChars),
		})
	}
	return out
}

// labelPatterns caches one case-insensitive literal matcher per label.
var labelPatterns sync.Map

func labelPattern(label string) *regexp.Regexp {
	if re, ok := labelPatterns.Load(label); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := labelPatterns.LoadOrStore(label, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(label)))
	return re.(*regexp.Regexp)
}

func runeWindow(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
