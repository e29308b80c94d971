package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quarterly_intel/pkg/core/embedding"
	"quarterly_intel/pkg/models"
)

// failingEmbedder encodes the first failAfter calls and fails the rest.
type failingEmbedder struct {
	inner     embedding.Provider
	failAfter int
	calls     int
}

func (f *failingEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls > f.failAfter {
		return nil, errors.New("encoder offline")
	}
	return f.inner.Encode(ctx, texts)
}
func (f *failingEmbedder) Dimension() int { return f.inner.Dimension() }
func (f *failingEmbedder) Name() string   { return "failing" }

func words(n int, w string) string {
	return strings.TrimSpace(strings.Repeat(w+" ", n))
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"a b", "c d", "e"}, SplitWords("a  b\nc\td e", 2))
	assert.Empty(t, SplitWords("   \n ", 2))
	assert.Len(t, SplitWords(words(601, "x"), 0), 3)
}

func TestChunkTranscript(t *testing.T) {
	chunks := ChunkTranscript("", words(5, "demand"), 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, "unknown_chunk_0", chunks[0].ChunkID)
	assert.Equal(t, "unknown_chunk_2", chunks[2].ChunkID)
	assert.Equal(t, "unknown", chunks[2].Source)
	assert.Equal(t, "demand", chunks[2].Text)

	named := ChunkTranscript("q1_call", "hello", 300)
	require.Len(t, named, 1)
	assert.Equal(t, "q1_call_chunk_0", named[0].ChunkID)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindFlat, k)
	k, err = ParseKind(" Scan ")
	require.NoError(t, err)
	assert.Equal(t, KindScan, k)
	_, err = ParseKind("hnsw")
	assert.Error(t, err)
}

func TestBuild_NoChunks(t *testing.T) {
	_, err := Build(context.Background(), nil, embedding.NewHashEmbedder(0), Options{})
	assert.ErrorIs(t, err, models.ErrIndexBuildFailure)
}

func TestRetrieve_TopKLargerThanChunks(t *testing.T) {
	ctx := context.Background()
	chunks := []models.Chunk{
		{ChunkID: "c_0", Source: "c", Text: "revenue grew on strong demand"},
		{ChunkID: "c_1", Source: "c", Text: "attrition fell this quarter"},
		{ChunkID: "c_2", Source: "c", Text: "margins improved on efficiency"},
	}
	for _, kind := range []Kind{KindFlat, KindScan} {
		t.Run(string(kind), func(t *testing.T) {
			r, err := Build(ctx, chunks, embedding.NewHashEmbedder(0), Options{Kind: kind})
			require.NoError(t, err)
			assert.Equal(t, kind, r.Kind())

			hits := r.Retrieve(ctx, "demand outlook", 5)
			require.Len(t, hits, 3)
			for i := 1; i < len(hits); i++ {
				assert.LessOrEqual(t, hits[i-1].Score, hits[i].Score)
			}
			for _, c := range r.Chunks() {
				assert.Len(t, c.Embedding, embedding.DefaultHashDimension)
			}
		})
	}
}

func TestRetrieve_FlatAndScanAgree(t *testing.T) {
	ctx := context.Background()
	chunks := ChunkTranscript("call", words(40, "alpha")+" "+words(40, "beta")+" "+words(40, "gamma"), 20)
	emb := embedding.NewHashEmbedder(32)

	flat, err := Build(ctx, chunks, emb, Options{Kind: KindFlat})
	require.NoError(t, err)
	scan, err := Build(ctx, chunks, emb, Options{Kind: KindScan})
	require.NoError(t, err)

	a := flat.Retrieve(ctx, "beta", 4)
	b := scan.Retrieve(ctx, "beta", 4)
	require.Len(t, a, 4)
	require.Len(t, b, 4)
	for i := range a {
		assert.Equal(t, a[i].ChunkID, b[i].ChunkID)
		assert.InDelta(t, a[i].Score, b[i].Score, 1e-5)
	}
}

func TestRetrieve_ExactMatchFirst(t *testing.T) {
	ctx := context.Background()
	chunks := []models.Chunk{
		{ChunkID: "a", Text: "one"},
		{ChunkID: "b", Text: "two"},
		{ChunkID: "c", Text: "three"},
	}
	r, err := Build(ctx, chunks, embedding.NewHashEmbedder(0), Options{})
	require.NoError(t, err)
	hits := r.Retrieve(ctx, "two", 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ChunkID)
	assert.InDelta(t, 0, hits[0].Score, 1e-6)
}

// queryCounter embeds queries like passages and counts query calls.
type queryCounter struct {
	embedding.Provider
	queries int
}

func (q *queryCounter) EncodeQueries(ctx context.Context, texts []string) ([][]float32, error) {
	q.queries += len(texts)
	return q.Provider.Encode(ctx, texts)
}

func TestRetrieve_UsesQueryEncoding(t *testing.T) {
	ctx := context.Background()
	emb := &queryCounter{Provider: embedding.NewHashEmbedder(0)}
	chunks := []models.Chunk{{ChunkID: "a", Text: "attrition"}, {ChunkID: "b", Text: "deal wins"}}
	r, err := Build(ctx, chunks, emb, Options{})
	require.NoError(t, err)

	hits := r.Retrieve(ctx, "deal wins", 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ChunkID)
	assert.Equal(t, 1, emb.queries)
}

func TestRetrieve_SnippetTruncated(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("₹", 700)
	r, err := Build(ctx, []models.Chunk{{ChunkID: "x", Text: long}}, embedding.NewHashEmbedder(0), Options{})
	require.NoError(t, err)
	hits := r.Retrieve(ctx, "rupee", 3)
	require.Len(t, hits, 1)
	assert.Equal(t, DefaultSnippetChars, len([]rune(hits[0].Text)))
}

func TestRetrieve_ZeroTopK(t *testing.T) {
	ctx := context.Background()
	r, err := Build(ctx, ChunkTranscript("c", "a b c", 1), embedding.NewHashEmbedder(0), Options{})
	require.NoError(t, err)
	assert.Empty(t, r.Retrieve(ctx, "a", 0))
}

func TestBuild_EncodeFailureUsesKeyword(t *testing.T) {
	ctx := context.Background()
	chunks := []models.Chunk{
		{ChunkID: "c_0", Text: "Attrition was elevated"},
		{ChunkID: "c_1", Text: "Strong deal pipeline"},
		{ChunkID: "c_2", Text: "Employee turnover and hiring"},
	}
	emb := &failingEmbedder{inner: embedding.NewHashEmbedder(0), failAfter: 0}
	r, err := Build(ctx, chunks, emb, Options{})
	require.NoError(t, err)
	assert.Equal(t, KindKeyword, r.Kind())

	hits := r.Retrieve(ctx, "attrition, employee turnover, resignations", 5)
	require.Len(t, hits, 2)
	assert.Equal(t, "c_0", hits[0].ChunkID)
	assert.Equal(t, "c_2", hits[1].ChunkID)
	assert.Zero(t, hits[0].Score)

	assert.Len(t, r.Retrieve(ctx, "attrition, employee turnover", 1), 1)
}

func TestRetrieve_QueryEncodeFailureDegrades(t *testing.T) {
	ctx := context.Background()
	chunks := []models.Chunk{
		{ChunkID: "c_0", Text: "guidance for next quarter"},
		{ChunkID: "c_1", Text: "nothing relevant"},
	}
	emb := &failingEmbedder{inner: embedding.NewHashEmbedder(0), failAfter: 1}
	r, err := Build(ctx, chunks, emb, Options{})
	require.NoError(t, err)
	assert.Equal(t, KindFlat, r.Kind())

	hits := r.Retrieve(ctx, "guidance, outlook", 5)
	require.Len(t, hits, 1)
	assert.Equal(t, "c_0", hits[0].ChunkID)
}

func TestKeywordMatch(t *testing.T) {
	assert.True(t, keywordMatch("Margin, profitability", "operating MARGIN expanded"))
	assert.True(t, keywordMatch("deals, pipeline", "the PIPELINE is healthy"))
	assert.False(t, keywordMatch("deals, pipeline", "nothing here"))
	assert.False(t, keywordMatch("  ", "anything"))
}
