package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// BatchEmbedContents accepts at most 100 requests.
const geminiBatchSize = 100

// GeminiEmbedder uses the Gemini embedding models (text-embedding-004 by default).
// Passages and queries use separate task types.
type GeminiEmbedder struct {
	client  *genai.Client
	docs    *genai.EmbeddingModel
	queries *genai.EmbeddingModel
	name    string
	dim     atomic.Int64
}

var (
	_ Provider     = (*GeminiEmbedder)(nil)
	_ QueryEncoder = (*GeminiEmbedder)(nil)
)

func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if model == "" {
		model = "text-embedding-004"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	docs := client.EmbeddingModel(model)
	docs.TaskType = genai.TaskTypeRetrievalDocument
	queries := client.EmbeddingModel(model)
	queries.TaskType = genai.TaskTypeRetrievalQuery
	return &GeminiEmbedder{client: client, docs: docs, queries: queries, name: model}, nil
}

func (g *GeminiEmbedder) Name() string   { return "gemini:" + g.name }
func (g *GeminiEmbedder) Dimension() int { return int(g.dim.Load()) }

func (g *GeminiEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	return g.embed(ctx, g.docs, texts)
}

func (g *GeminiEmbedder) EncodeQueries(ctx context.Context, queries []string) ([][]float32, error) {
	return g.embed(ctx, g.queries, queries)
}

func (g *GeminiEmbedder) embed(ctx context.Context, model *genai.EmbeddingModel, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchSize {
		chunk := texts[start:min(start+geminiBatchSize, len(texts))]
		batch := model.NewBatch()
		for _, t := range chunk {
			batch.AddContent(genai.Text(t))
		}
		resp, err := model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini embedding failed: %w", err)
		}
		if len(resp.Embeddings) != len(chunk) {
			return nil, fmt.Errorf("%w: got %d for %d inputs", ErrEmptyEmbedding, len(resp.Embeddings), len(chunk))
		}
		for i, e := range resp.Embeddings {
			if e == nil {
				return nil, fmt.Errorf("%w: missing vector %d", ErrEmptyEmbedding, start+i)
			}
			out = append(out, e.Values)
		}
	}
	g.dim.Store(int64(len(out[0])))
	return out, nil
}

func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}
