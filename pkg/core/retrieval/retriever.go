package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quarterly_intel/pkg/core/embedding"
	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/metrics"
	"quarterly_intel/pkg/models"
)

const DefaultSnippetChars = 600

type Options struct {
	Kind         Kind
	SnippetChars int
	Logger       *zap.Logger
	Recorder     *metrics.Recorder
}

// Retriever answers ranked queries over one immutable set of chunks.
// It is built per analysis call and safe for concurrent Retrieve calls.
type Retriever struct {
	chunks   []models.Chunk
	embedder embedding.Provider
	index    vectorIndex
	kind     Kind
	snippet  int
	logger   *zap.Logger
	recorder *metrics.Recorder
}

// Build encodes every chunk with embedder and indexes the vectors. When
// encoding fails, or opts.Kind is keyword, the retriever degrades to keyword
// matching. Only an empty chunk list is an error.
func Build(ctx context.Context, chunks []models.Chunk, embedder embedding.Provider, opts Options) (*Retriever, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks", models.ErrIndexBuildFailure)
	}
	if opts.Kind == "" {
		opts.Kind = KindFlat
	}
	if opts.SnippetChars <= 0 {
		opts.SnippetChars = DefaultSnippetChars
	}

	r := &Retriever{
		chunks:   append([]models.Chunk(nil), chunks...),
		embedder: embedder,
		kind:     KindKeyword,
		snippet:  opts.SnippetChars,
		logger:   logging.OrNop(opts.Logger),
		recorder: opts.Recorder,
	}
	if opts.Kind == KindKeyword || embedder == nil {
		return r, nil
	}

	texts := make([]string, len(r.chunks))
	for i, c := range r.chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.Encode(ctx, texts)
	if err == nil {
		err = checkVectors(vectors, len(texts))
	}
	if err != nil {
		r.logger.Warn("chunk encoding failed, using keyword retrieval",
			zap.String("embedder", embedder.Name()), zap.Error(err))
		return r, nil
	}

	for i := range r.chunks {
		r.chunks[i].Embedding = vectors[i]
	}
	switch opts.Kind {
	case KindScan:
		r.index = newScanIndex(vectors)
	default:
		r.index = newFlatIndex(vectors)
	}
	r.kind = opts.Kind
	return r, nil
}

func checkVectors(vectors [][]float32, n int) error {
	if len(vectors) != n {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), n)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return embedding.ErrEmptyEmbedding
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	return nil
}

// Kind reports the index actually in use, which is keyword after a degraded build.
func (r *Retriever) Kind() Kind { return r.kind }

// Chunks returns the indexed chunks with their embeddings.
func (r *Retriever) Chunks() []models.Chunk { return r.chunks }

// Retrieve returns up to topK chunks closest to query, ascending by distance.
// If the query cannot be encoded the keyword fallback is used.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) []models.RetrievalHit {
	if topK <= 0 {
		return []models.RetrievalHit{}
	}
	if r.index == nil {
		r.recorder.RetrievalQuery(string(KindKeyword))
		return r.keyword(query, topK)
	}

	vecs, err := embedding.EncodeQueries(ctx, r.embedder, []string{query})
	if err == nil && (len(vecs) != 1 || len(vecs[0]) != r.index.dimension()) {
		err = fmt.Errorf("query vector does not match index dimension %d", r.index.dimension())
	}
	if err != nil {
		r.logger.Warn("query encoding failed, using keyword retrieval", zap.String("query", query), zap.Error(err))
		r.recorder.RetrievalQuery(string(KindKeyword))
		return r.keyword(query, topK)
	}

	r.recorder.RetrievalQuery(string(r.kind))
	matches := r.index.search(vecs[0], topK)
	hits := make([]models.RetrievalHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, r.hit(r.chunks[m.pos], m.dist))
	}
	return hits
}

func (r *Retriever) keyword(query string, topK int) []models.RetrievalHit {
	hits := []models.RetrievalHit{}
	for _, c := range r.chunks {
		if len(hits) == topK {
			break
		}
		if keywordMatch(query, c.Text) {
			hits = append(hits, r.hit(c, 0))
		}
	}
	return hits
}

func (r *Retriever) hit(c models.Chunk, score float64) models.RetrievalHit {
	return models.RetrievalHit{
		ChunkID: c.ChunkID,
		Source:  c.Source,
		Text:    truncateRunes(c.Text, r.snippet),
		Score:   score,
	}
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
