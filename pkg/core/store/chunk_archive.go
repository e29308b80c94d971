package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"quarterly_intel/pkg/models"
)

// ChunkArchive stores the embedded transcript chunks of a run in
// docintel_chunks so they can be searched after the run ends.
type ChunkArchive struct {
	pool *pgxpool.Pool
}

func NewChunkArchive(pool *pgxpool.Pool) *ChunkArchive {
	return &ChunkArchive{pool: pool}
}

// SaveChunks writes chunks in one batch. Chunks without an embedding are
// stored with a NULL vector.
func (a *ChunkArchive) SaveChunks(ctx context.Context, requestID string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	query := `
		INSERT INTO docintel_chunks (request_id, chunk_id, source, text, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (request_id, chunk_id)
		DO UPDATE SET text = EXCLUDED.text, embedding = EXCLUDED.embedding
	`
	batch := &pgx.Batch{}
	for _, c := range chunks {
		var vec *pgvector.Vector
		if len(c.Embedding) > 0 {
			v := pgvector.NewVector(c.Embedding)
			vec = &v
		}
		batch.Queue(query, requestID, c.ChunkID, c.Source, c.Text, vec)
	}

	br := a.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range chunks {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to archive chunk %s: %w", chunks[i].ChunkID, err)
		}
	}
	return nil
}

// Nearest returns the k archived chunks of a run closest to query by L2 distance.
func (a *ChunkArchive) Nearest(ctx context.Context, requestID string, query []float32, k int) ([]models.RetrievalHit, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT chunk_id, source, text, embedding <-> $2 AS distance
		FROM docintel_chunks
		WHERE request_id = $1 AND embedding IS NOT NULL
		ORDER BY distance
		LIMIT $3
	`, requestID, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	hits := []models.RetrievalHit{}
	for rows.Next() {
		var h models.RetrievalHit
		if err := rows.Scan(&h.ChunkID, &h.Source, &h.Text, &h.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
