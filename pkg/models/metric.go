package models

// Unit of a metric value.
type Unit string

const (
	UnitINRCrore Unit = "INR_Cr"
	UnitPercent  Unit = "percent"
	UnitRatio    Unit = "ratio"
)

// Method identifies which extraction path produced a value.
type Method string

const (
	MethodTable   Method = "table"
	MethodText    Method = "text"
	MethodOCR     Method = "ocr"
	MethodLLM     Method = "llm"
	MethodDerived Method = "derived"
)

// Canonical metric keys produced by label normalization.
const (
	KeyTotalRevenue    = "total_revenue"
	KeyNetProfit       = "net_profit"
	KeyOperatingProfit = "operating_profit"
	KeyEBITDA          = "ebitda"
	KeyEPS             = "eps"
	KeyOperatingMargin = "operating_margin"
)

// Metric is one normalized value with its provenance.
type Metric struct {
	Key          string  `json:"key"`
	Value        float64 `json:"value"`
	Unit         Unit    `json:"unit"`
	Confidence   float64 `json:"confidence"`
	SourceMethod Method  `json:"source_method"`
	Label        string  `json:"label,omitempty"`
	Page         *int    `json:"page,omitempty"`
}

// RawCandidate is a value found by a backend before label normalization.
type RawCandidate struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Unit       Unit    `json:"unit"`
	Page       *int    `json:"page,omitempty"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context,omitempty"`
}

// ReportDescriptor describes one quarterly report. Only LocalPath is read
// by the extraction layer; the rest is carried through as metadata.
type ReportDescriptor struct {
	Name      string `json:"name" yaml:"name"`
	LocalPath string `json:"local_path" yaml:"local_path"`
	SourceURL string `json:"source_url,omitempty" yaml:"source_url"`
	Year      *int   `json:"year,omitempty" yaml:"year"`
	Quarter   *int   `json:"quarter,omitempty" yaml:"quarter"`
	Type      string `json:"type,omitempty" yaml:"type"`
}

// AttemptStatus is the outcome class of one backend stage.
type AttemptStatus string

const (
	StatusOK          AttemptStatus = "ok"
	StatusUnavailable AttemptStatus = "unavailable"
	StatusFailed      AttemptStatus = "failed"
	StatusSkipped     AttemptStatus = "skipped"
)

// MethodAttempt records what happened for one method in the cascade.
type MethodAttempt struct {
	Attempted    bool           `json:"attempted"`
	Status       AttemptStatus  `json:"status"`
	Reason       string         `json:"reason,omitempty"`
	MetricsFound int            `json:"metrics_found"`
	Hits         []RawCandidate `json:"hits"`
	TextLength   int            `json:"text_length,omitempty"`
}

// ExtractionLog is the per-method audit trail of a cascade run.
type ExtractionLog struct {
	Table MethodAttempt `json:"table"`
	Text  MethodAttempt `json:"text"`
	OCR   MethodAttempt `json:"ocr"`
}

// ExtractionResult is the merged metric set for one document.
type ExtractionResult struct {
	DocMeta       ReportDescriptor  `json:"doc_meta"`
	Metrics       map[string]Metric `json:"metrics"`
	ExtractionLog ExtractionLog     `json:"extraction_log"`
	MetricsCount  int               `json:"metrics_count"`
	Error         string            `json:"error,omitempty"`
}

// ErrorFileNotFound is the Error value of a result whose path could not be read.
const ErrorFileNotFound = "file_not_found"
