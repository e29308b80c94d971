package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"
)

const openAIBatchSize = 100

// OpenAIEmbedder calls any server speaking the OpenAI embeddings API, such as
// a local sentence-transformers server hosting all-MiniLM-L6-v2.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    atomic.Int64
}

var _ Provider = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(baseURL, apiKey, model string) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg), model: model}
}

func (e *OpenAIEmbedder) Name() string   { return "openai:" + e.model }
func (e *OpenAIEmbedder) Dimension() int { return int(e.dim.Load()) }

func (e *OpenAIEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openAIBatchSize {
		end := min(start+openAIBatchSize, len(texts))
		batch := texts[start:end]

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("%w: got %d for %d inputs", ErrEmptyEmbedding, len(resp.Data), len(batch))
		}

		vecs := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("embedding index %d out of range", d.Index)
			}
			vecs[d.Index] = d.Embedding
		}
		out = append(out, vecs...)
	}
	if len(out) > 0 {
		e.dim.Store(int64(len(out[0])))
	}
	return out, nil
}
