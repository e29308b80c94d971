package models

import "time"

// EnrichmentStatus tells whether the LLM pass or the deterministic fallback produced the result.
type EnrichmentStatus string

const (
	EnrichmentOK       EnrichmentStatus = "ok"
	EnrichmentFallback EnrichmentStatus = "fallback"
)

// Suggestion is an LLM-proposed value for a key that was already extracted.
type Suggestion struct {
	Key          string  `json:"key"`
	Value        float64 `json:"value"`
	CurrentValue float64 `json:"current_value"`
	Source       Method  `json:"source"`
}

type EnrichmentResult struct {
	Status      EnrichmentStatus  `json:"status"`
	Metrics     map[string]Metric `json:"metrics"`
	Suggestions []Suggestion      `json:"suggestions,omitempty"`
	Notes       string            `json:"notes,omitempty"`
}

// ValidationCheck is one consistency rule applied to a report's metrics.
type ValidationCheck struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Actual    float64 `json:"actual"`
	Expected  float64 `json:"expected"`
	Tolerance float64 `json:"tolerance,omitempty"`
	Message   string  `json:"message,omitempty"`
}

type ValidationReport struct {
	Checks       []ValidationCheck `json:"checks"`
	AllPassed    bool              `json:"all_passed"`
	FailedChecks []string          `json:"failed_checks,omitempty"`
}

// ReportInsight pairs one extraction result with its enrichment.
type ReportInsight struct {
	Extraction ExtractionResult `json:"extraction"`
	Enrichment EnrichmentResult `json:"enrichment"`
	// TextHighlights are prose metrics (margins, ratios) read from the report text.
	TextHighlights map[string]Metric `json:"text_highlights,omitempty"`
	Validation     *ValidationReport `json:"validation,omitempty"`
}

// DocumentInsights is the full output of one pipeline run.
type DocumentInsights struct {
	RequestID   string             `json:"request_id"`
	Ticker      string             `json:"ticker"`
	GeneratedAt time.Time          `json:"generated_at"`
	Reports     []ReportInsight    `json:"reports"`
	Qualitative QualitativeSummary `json:"qualitative"`
}
