package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quarterly_intel/pkg/core/extract"
	"quarterly_intel/pkg/models"
)

// --- Mocks ---

type MockExtractor struct {
	ExtractFunc func(report models.ReportDescriptor) models.ExtractionResult
}

func (m *MockExtractor) ExtractBatch(_ context.Context, reports []models.ReportDescriptor) []models.ExtractionResult {
	out := make([]models.ExtractionResult, len(reports))
	for i, r := range reports {
		if m.ExtractFunc != nil {
			out[i] = m.ExtractFunc(r)
			continue
		}
		out[i] = models.ExtractionResult{
			DocMeta: r,
			Metrics: map[string]models.Metric{
				"total_revenue": {Key: "total_revenue", Value: 100, Unit: models.UnitINRCrore, Confidence: 0.85, SourceMethod: models.MethodTable},
			},
			MetricsCount: 1,
		}
	}
	return out
}

type MockTextReader struct {
	ReadFunc func(doc extract.Document) (string, error)
}

func (m *MockTextReader) ReadText(_ context.Context, doc extract.Document) (string, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(doc)
	}
	return "", fmt.Errorf("no text")
}

type enrichCall struct {
	current  map[string]models.Metric
	text     string
	previous map[string]float64
}

type MockEnricher struct {
	mu    sync.Mutex
	calls []enrichCall
}

func (m *MockEnricher) Enrich(_ context.Context, current map[string]models.Metric, text string, previous map[string]float64) models.EnrichmentResult {
	m.mu.Lock()
	m.calls = append(m.calls, enrichCall{current: current, text: text, previous: previous})
	m.mu.Unlock()
	return models.EnrichmentResult{Status: models.EnrichmentFallback, Metrics: current}
}

type MockAnalyzer struct {
	called bool
}

func (m *MockAnalyzer) AnalyzeWithChunks(_ context.Context, transcripts []models.TranscriptDescriptor) (models.QualitativeSummary, []models.Chunk) {
	m.called = true
	summary := models.QualitativeSummary{
		Themes:          []models.ThemeResult{{Theme: "demand", Count: 1}},
		Sentiment:       models.Sentiment{Summary: models.SentimentNeutral},
		ForwardGuidance: []models.RetrievalHit{},
		Risks:           []models.Risk{},
	}
	return summary, []models.Chunk{{ChunkID: transcripts[0].Name + "_chunk_0", Source: transcripts[0].Name, Text: "x"}}
}

type MockRunStore struct {
	SaveFunc func(insights *models.DocumentInsights) error
	started  []string
	saved    []*models.DocumentInsights
	events   []string
}

func (m *MockRunStore) StartRun(_ context.Context, requestID, _ string) error {
	m.started = append(m.started, requestID)
	return nil
}

func (m *MockRunStore) SaveRun(_ context.Context, insights *models.DocumentInsights) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(insights)
	}
	m.saved = append(m.saved, insights)
	return nil
}

func (m *MockRunStore) LoadRun(context.Context, string) (*models.DocumentInsights, error) {
	return nil, nil
}

func (m *MockRunStore) LogEvent(_ context.Context, _ string, kind string, _ interface{}) error {
	m.events = append(m.events, kind)
	return nil
}

type MockChunkSink struct {
	saved map[string][]models.Chunk
}

func (m *MockChunkSink) SaveChunks(_ context.Context, requestID string, chunks []models.Chunk) error {
	if m.saved == nil {
		m.saved = map[string][]models.Chunk{}
	}
	m.saved[requestID] = chunks
	return nil
}

type mocks struct {
	extractor *MockExtractor
	texts     *MockTextReader
	enricher  *MockEnricher
	analyzer  *MockAnalyzer
	runs      *MockRunStore
	sink      *MockChunkSink
}

func newTestOrchestrator(t *testing.T, m *mocks) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(m.extractor, m.texts, m.enricher, m.analyzer)
	require.NoError(t, err)
	o.SetStore(m.runs)
	o.SetChunkSink(m.sink)
	o.newID = func() string { return "req-1" }
	o.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return o
}

func intp(v int) *int { return &v }

// --- Tests ---

func TestOrchestrator_Run(t *testing.T) {
	tests := []struct {
		name          string
		req           Request
		setupMocks    func(*mocks)
		expectedError string
		verify        func(*testing.T, *mocks, *models.DocumentInsights)
	}{
		{
			name: "Success - reports and transcripts",
			req: Request{
				Ticker:      "TCS",
				Reports:     []models.ReportDescriptor{{Name: "q1", LocalPath: "q1.pdf"}},
				Transcripts: []models.TranscriptDescriptor{{Name: "call", LocalPath: "call.txt"}},
			},
			verify: func(t *testing.T, m *mocks, got *models.DocumentInsights) {
				assert.Equal(t, "req-1", got.RequestID)
				assert.Equal(t, "TCS", got.Ticker)
				require.Len(t, got.Reports, 1)
				assert.Equal(t, models.EnrichmentFallback, got.Reports[0].Enrichment.Status)
				require.NotNil(t, got.Reports[0].Validation)
				assert.True(t, got.Reports[0].Validation.AllPassed)
				assert.True(t, m.analyzer.called)
				assert.Equal(t, "demand", got.Qualitative.Themes[0].Theme)
				assert.Equal(t, []string{"req-1"}, m.runs.started)
				require.Len(t, m.runs.saved, 1)
				assert.Equal(t, []string{"extraction", "enrichment", "qualitative"}, m.runs.events)
				assert.Len(t, m.sink.saved["req-1"], 1)
			},
		},
		{
			name:          "Edge Case - Empty Request",
			req:           Request{Ticker: "TCS"},
			expectedError: ErrEmptyRequest.Error(),
		},
		{
			name: "Edge Case - No Transcripts",
			req:  Request{Reports: []models.ReportDescriptor{{Name: "q1", LocalPath: "q1.pdf"}}},
			verify: func(t *testing.T, m *mocks, got *models.DocumentInsights) {
				assert.False(t, m.analyzer.called)
				assert.Equal(t, models.InsufficientDataSummary(), got.Qualitative)
				assert.Empty(t, m.sink.saved)
			},
		},
		{
			name: "Edge Case - File Not Found Skips Enrichment",
			req:  Request{Reports: []models.ReportDescriptor{{Name: "gone", LocalPath: "/missing.pdf"}}},
			setupMocks: func(m *mocks) {
				m.extractor.ExtractFunc = func(r models.ReportDescriptor) models.ExtractionResult {
					return models.ExtractionResult{DocMeta: r, Metrics: map[string]models.Metric{}, Error: models.ErrorFileNotFound}
				}
			},
			verify: func(t *testing.T, m *mocks, got *models.DocumentInsights) {
				assert.Empty(t, m.enricher.calls)
				assert.Nil(t, got.Reports[0].Validation)
				assert.Equal(t, "extraction failed: file_not_found", got.Reports[0].Enrichment.Notes)
				assert.NotNil(t, got.Reports[0].Enrichment.Metrics)
			},
		},
		{
			name: "Text Highlights From Report Text",
			req:  Request{Reports: []models.ReportDescriptor{{Name: "q1", LocalPath: "q1.txt"}}},
			setupMocks: func(m *mocks) {
				m.texts.ReadFunc = func(doc extract.Document) (string, error) {
					return "Operating margin of 24.5% for the quarter", nil
				}
			},
			verify: func(t *testing.T, m *mocks, got *models.DocumentInsights) {
				require.Len(t, m.enricher.calls, 1)
				assert.Contains(t, m.enricher.calls[0].text, "Operating margin")
				assert.InDelta(t, 24.5, got.Reports[0].TextHighlights["operating_margin"].Value, 1e-9)
			},
		},
		{
			name: "Validation Flags Inconsistent Metrics",
			req:  Request{Reports: []models.ReportDescriptor{{Name: "q1", LocalPath: "q1.pdf"}}},
			setupMocks: func(m *mocks) {
				m.extractor.ExtractFunc = func(r models.ReportDescriptor) models.ExtractionResult {
					return models.ExtractionResult{DocMeta: r, MetricsCount: 2, Metrics: map[string]models.Metric{
						"total_revenue": {Key: "total_revenue", Value: 100},
						"net_profit":    {Key: "net_profit", Value: 150},
					}}
				}
			},
			verify: func(t *testing.T, m *mocks, got *models.DocumentInsights) {
				v := got.Reports[0].Validation
				require.NotNil(t, v)
				assert.False(t, v.AllPassed)
				assert.Equal(t, []string{"Net Profit Within Revenue"}, v.FailedChecks)
			},
		},
		{
			name: "Edge Case - Storage Failure",
			req:  Request{Reports: []models.ReportDescriptor{{Name: "q1", LocalPath: "q1.pdf"}}},
			setupMocks: func(m *mocks) {
				m.runs.SaveFunc = func(*models.DocumentInsights) error { return fmt.Errorf("db connection lost") }
			},
			expectedError: "storage failed: db connection lost",
			verify: func(t *testing.T, m *mocks, got *models.DocumentInsights) {
				require.NotNil(t, got)
				assert.Len(t, got.Reports, 1)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := &mocks{
				extractor: &MockExtractor{},
				texts:     &MockTextReader{},
				enricher:  &MockEnricher{},
				analyzer:  &MockAnalyzer{},
				runs:      &MockRunStore{},
				sink:      &MockChunkSink{},
			}
			if tc.setupMocks != nil {
				tc.setupMocks(m)
			}
			got, err := newTestOrchestrator(t, m).Run(context.Background(), tc.req)

			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectedError, err.Error())
			} else {
				require.NoError(t, err)
			}
			if tc.verify != nil {
				tc.verify(t, m, got)
			}
		})
	}
}

func TestOrchestrator_PreviousPeriod(t *testing.T) {
	m := &mocks{
		extractor: &MockExtractor{ExtractFunc: func(r models.ReportDescriptor) models.ExtractionResult {
			value := float64(*r.Quarter) * 100
			return models.ExtractionResult{DocMeta: r, Metrics: map[string]models.Metric{
				"total_revenue": {Key: "total_revenue", Value: value},
			}, MetricsCount: 1}
		}},
		texts:    &MockTextReader{},
		enricher: &MockEnricher{},
		analyzer: &MockAnalyzer{},
		runs:     &MockRunStore{},
		sink:     &MockChunkSink{},
	}
	req := Request{Reports: []models.ReportDescriptor{
		{Name: "q3", Year: intp(2025), Quarter: intp(3)},
		{Name: "q1", Year: intp(2025), Quarter: intp(1)},
		{Name: "q2", Year: intp(2025), Quarter: intp(2)},
	}}
	_, err := newTestOrchestrator(t, m).Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, m.enricher.calls, 3)
	assert.Equal(t, map[string]float64{"total_revenue": 200}, m.enricher.calls[0].previous)
	assert.Nil(t, m.enricher.calls[1].previous)
	assert.Equal(t, map[string]float64{"total_revenue": 100}, m.enricher.calls[2].previous)
}

func TestPreviousPeriods_Undated(t *testing.T) {
	reports := []models.ReportDescriptor{
		{Name: "a", Year: intp(2024), Quarter: intp(4)},
		{Name: "b"},
		{Name: "c", Year: intp(2025), Quarter: intp(1)},
	}
	results := []models.ExtractionResult{
		{Metrics: map[string]models.Metric{"net_profit": {Value: 10}}},
		{Metrics: map[string]models.Metric{"net_profit": {Value: 99}}},
		{Metrics: map[string]models.Metric{"net_profit": {Value: 12}}},
	}
	prev := previousPeriods(reports, results)
	assert.Nil(t, prev[0])
	assert.Nil(t, prev[1])
	assert.Equal(t, map[string]float64{"net_profit": 10}, prev[2])

	results[0].Error = models.ErrorFileNotFound
	assert.Nil(t, previousPeriods(reports, results)[2])
}

func TestNewOrchestrator_RequiresDeps(t *testing.T) {
	_, err := NewOrchestrator(nil, &MockTextReader{}, &MockEnricher{}, &MockAnalyzer{})
	assert.Error(t, err)
}
