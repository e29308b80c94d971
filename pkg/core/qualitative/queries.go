package qualitative

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Theme is a named retrieval query.
type Theme struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

// QuerySet holds every query the analyzer issues.
type QuerySet struct {
	Themes   []Theme  `yaml:"themes"`
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Guidance string   `yaml:"guidance"`
	// Risks names the themes reported as risks when detected.
	Risks []string `yaml:"risks"`
}

// DefaultQuerySet returns the built-in queries.
func DefaultQuerySet() QuerySet {
	return QuerySet{
		Themes: []Theme{
			{Name: "demand", Query: "demand, growth, digital transformation, revenue growth, market demand"},
			{Name: "attrition", Query: "attrition, employee turnover, resignations, hiring, talent, retention"},
			{Name: "guidance", Query: "guidance, outlook, expect, forecast, projection, next quarter"},
			{Name: "margins", Query: "margin, profitability, costs, efficiency, operating margin"},
			{Name: "deals", Query: "deals, pipeline, bookings, wins, contracts, clients"},
		},
		Positive: []string{"strong performance", "growth", "optimistic", "positive"},
		Negative: []string{"challenges", "headwinds", "concerns", "pressure"},
		Guidance: "guidance, outlook, expect, forecast, next quarter, full year",
		Risks:    []string{"attrition", "competition", "macro", "regulation"},
	}
}

// LoadQuerySet reads a YAML query file. Sections absent from the file keep
// their defaults.
func LoadQuerySet(path string) (QuerySet, error) {
	qs := DefaultQuerySet()
	data, err := os.ReadFile(path)
	if err != nil {
		return qs, fmt.Errorf("failed to read query set: %w", err)
	}
	var file QuerySet
	if err := yaml.Unmarshal(data, &file); err != nil {
		return qs, fmt.Errorf("failed to parse query set %s: %w", path, err)
	}
	if len(file.Themes) > 0 {
		qs.Themes = file.Themes
	}
	if len(file.Positive) > 0 {
		qs.Positive = file.Positive
	}
	if len(file.Negative) > 0 {
		qs.Negative = file.Negative
	}
	if file.Guidance != "" {
		qs.Guidance = file.Guidance
	}
	if file.Risks != nil {
		qs.Risks = file.Risks
	}
	return qs, qs.validate()
}

func (qs QuerySet) validate() error {
	seen := make(map[string]bool, len(qs.Themes))
	for i, th := range qs.Themes {
		if th.Name == "" || th.Query == "" {
			return fmt.Errorf("theme %d needs both name and query", i)
		}
		if seen[th.Name] {
			return fmt.Errorf("duplicate theme %q", th.Name)
		}
		seen[th.Name] = true
	}
	return nil
}
