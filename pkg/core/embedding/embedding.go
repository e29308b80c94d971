// Package embedding turns text into fixed-dimension vectors for retrieval.
//
// Real embedders talk to an OpenAI-compatible endpoint or to Gemini. When
// neither is reachable, or FORCE_FAKE_EMBEDDER is set, the deterministic
// HashEmbedder is used so retrieval keeps working offline.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyEmbedding is returned when a backend answers with fewer vectors than inputs.
var ErrEmptyEmbedding = errors.New("embedding backend returned no vectors")

// Provider encodes texts into vectors of a single dimension.
type Provider interface {
	// Encode returns one vector per text, in order.
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the vector length, or 0 before the first successful call
	// for backends that learn it from the server.
	Dimension() int
	Name() string
}

// QueryEncoder is implemented by providers that embed search queries
// differently from the passages they are matched against.
type QueryEncoder interface {
	EncodeQueries(ctx context.Context, queries []string) ([][]float32, error)
}

// EncodeQueries encodes search queries with p's query mode when it has one.
func EncodeQueries(ctx context.Context, p Provider, queries []string) ([][]float32, error) {
	if q, ok := p.(QueryEncoder); ok {
		return q.EncodeQueries(ctx, queries)
	}
	return p.Encode(ctx, queries)
}
