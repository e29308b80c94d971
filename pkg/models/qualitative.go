package models

// TranscriptDescriptor names one earnings-call transcript on disk.
type TranscriptDescriptor struct {
	Name      string `json:"name" yaml:"name"`
	LocalPath string `json:"local_path" yaml:"local_path"`
}

// Chunk is a contiguous word window of a transcript.
type Chunk struct {
	ChunkID   string    `json:"chunk_id"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
}

// RetrievalHit is one ranked chunk. Lower Score means closer.
type RetrievalHit struct {
	ChunkID string  `json:"chunk_id"`
	Source  string  `json:"source"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

type ThemeResult struct {
	Theme    string         `json:"theme"`
	Count    int            `json:"count"`
	Examples []RetrievalHit `json:"examples"`
}

type Sentiment struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

type Risk struct {
	Name     string   `json:"name"`
	Evidence []string `json:"evidence"`
}

// QualitativeSummary is the output of transcript analysis.
type QualitativeSummary struct {
	Themes          []ThemeResult  `json:"themes"`
	Sentiment       Sentiment      `json:"management_sentiment"`
	ForwardGuidance []RetrievalHit `json:"forward_guidance"`
	Risks           []Risk         `json:"risks"`
}

// Sentiment labels.
const (
	SentimentPositive             = "positive"
	SentimentCautiouslyOptimistic = "cautiously optimistic"
	SentimentNegative             = "negative"
	SentimentCautious             = "cautious"
	SentimentNeutral              = "neutral"
	SentimentInsufficientData     = "insufficient_data"
)

// InsufficientDataSummary is returned when no chunk could be indexed.
func InsufficientDataSummary() QualitativeSummary {
	return QualitativeSummary{
		Themes:          []ThemeResult{},
		Sentiment:       Sentiment{Score: 0.0, Summary: SentimentInsufficientData},
		ForwardGuidance: []RetrievalHit{},
		Risks:           []Risk{},
	}
}
