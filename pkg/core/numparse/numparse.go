// Package numparse reads INR-style financial numbers out of free text.
//
// Patterns are tried in a fixed order and the first one that yields a number wins:
//
//  1. currency-marked (₹, Rs, Rs.) with an optional unit word
//  2. Indian grouping (1,23,456)
//  3. Western grouping (123,456)
//  4. plain decimal (9876.54)
//
// A two-group number such as 12,345 can satisfy both grouping heuristics.
// The order above decides; surrounding unit context is not consulted.
package numparse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyPattern = regexp.MustCompile(`(?:₹|\bRs\.?)\s*([0-9,\.]+)\s*(Crore|Cr|CR|cr|Million|Mn)?`)
	indianPattern   = regexp.MustCompile(`\b([0-9]{1,3}(?:,[0-9]{2})+(?:,[0-9]{3})?)\b`)
	westernPattern  = regexp.MustCompile(`\b([0-9]{1,3}(?:,[0-9]{3})+)\b`)
	plainPattern    = regexp.MustCompile(`\b([0-9]+(?:\.[0-9]+)?)\b`)
)

var orderedPatterns = []*regexp.Regexp{currencyPattern, indianPattern, westernPattern, plainPattern}

// Parse returns the first number found in text, or nil.
// Unit words are never applied.
func Parse(text string) *float64 {
	v, _ := ParseWithUnit(text)
	return v
}

// ParseWithUnit is Parse that also reports the unit word attached to a
// currency-marked match ("Cr", "Million", ...). The unit is empty for the
// other patterns.
func ParseWithUnit(text string) (*float64, string) {
	if strings.TrimSpace(text) == "" {
		return nil, ""
	}
	for _, re := range orderedPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, ok := parseDigits(m[1])
		if !ok {
			continue
		}
		unit := ""
		if re == currencyPattern && len(m) > 2 {
			unit = m[2]
		}
		return &v, unit
	}
	return nil, ""
}

// ToCrore converts a value expressed in unitWord into crore.
// One crore is ten million; unknown or crore units pass through.
func ToCrore(value float64, unitWord string) float64 {
	switch strings.ToLower(unitWord) {
	case "million", "mn":
		return value / 10.0
	}
	return value
}

func parseDigits(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimRight(s, ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
