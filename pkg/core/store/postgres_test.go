package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quarterly_intel/pkg/models"
)

// openTestDB connects to DOCINTEL_TEST_DATABASE_URL, a database with the
// pgvector extension available. Tests skip without it.
func openTestDB(t *testing.T) context.Context {
	t.Helper()
	if os.Getenv("DOCINTEL_TEST_DATABASE_URL") == "" {
		t.Skip("DOCINTEL_TEST_DATABASE_URL not set")
	}
	return context.Background()
}

func TestRunRepo_Postgres(t *testing.T) {
	ctx := openTestDB(t)
	pool, err := Open(ctx, os.Getenv("DOCINTEL_TEST_DATABASE_URL"))
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, EnsureSchema(ctx, pool))

	repo := NewRunRepo(pool)
	ticker := "T" + uuid.NewString()[:8]
	older := &models.DocumentInsights{RequestID: uuid.NewString(), Ticker: ticker, GeneratedAt: time.Now().Add(-time.Hour)}
	newer := &models.DocumentInsights{RequestID: uuid.NewString(), Ticker: ticker, GeneratedAt: time.Now()}

	for _, in := range []*models.DocumentInsights{older, newer} {
		require.NoError(t, repo.StartRun(ctx, in.RequestID, in.Ticker))
		require.NoError(t, repo.SaveRun(ctx, in))
	}
	require.NoError(t, repo.LogEvent(ctx, newer.RequestID, "extraction", map[string]int{"metrics": 3}))

	got, err := repo.LoadRun(ctx, newer.RequestID)
	require.NoError(t, err)
	assert.Equal(t, newer.RequestID, got.RequestID)

	runs, err := repo.ListRuns(ctx, ticker)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.RequestID, runs[0].RequestID)

	_, err = repo.LoadRun(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestChunkArchive_Nearest(t *testing.T) {
	ctx := openTestDB(t)
	pool, err := Open(ctx, os.Getenv("DOCINTEL_TEST_DATABASE_URL"))
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, EnsureSchema(ctx, pool))

	archive := NewChunkArchive(pool)
	reqID := uuid.NewString()
	require.NoError(t, archive.SaveChunks(ctx, reqID, []models.Chunk{
		{ChunkID: "c_chunk_0", Source: "c", Text: "demand", Embedding: []float32{1, 0, 0}},
		{ChunkID: "c_chunk_1", Source: "c", Text: "attrition", Embedding: []float32{0, 1, 0}},
		{ChunkID: "c_chunk_2", Source: "c", Text: "no vector"},
	}))

	hits, err := archive.Nearest(ctx, reqID, []float32{0, 0.9, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c_chunk_1", hits[0].ChunkID)
	assert.InDelta(t, 0.1, hits[0].Score, 1e-6)
	assert.Equal(t, "c_chunk_0", hits[1].ChunkID)
}
