package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
)

const DefaultHashDimension = 64

// HashEmbedder derives vectors from the SHA-256 digest of each text. Equal
// texts always get equal unit vectors; there is no notion of similarity.
type HashEmbedder struct {
	dim int
}

var _ Provider = (*HashEmbedder)(nil)

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Name() string   { return fmt.Sprintf("hash-%d", h.dim) }
func (h *HashEmbedder) Dimension() int { return h.dim }

func (h *HashEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

// vector expands the digest byte-wise into [-1, 1], cycling through the 32
// bytes, then scales to unit length.
func (h *HashEmbedder) vector(text string) []float32 {
	digest := sha256.Sum256([]byte(text))
	vals := make([]float64, h.dim)
	var norm float64
	for i := range vals {
		b := digest[i%len(digest)]
		vals[i] = float64(b)/255.0*2.0 - 1.0
		norm += vals[i] * vals[i]
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, h.dim)
	for i, v := range vals {
		if norm > 0 {
			v /= norm
		}
		vec[i] = float32(v)
	}
	return vec
}
