// Package retrieval builds a per-call nearest-neighbour index over transcript
// chunks and answers ranked queries against it.
package retrieval

import (
	"fmt"
	"strings"

	"quarterly_intel/pkg/models"
)

const DefaultChunkWords = 300

// SplitWords cuts text into windows of n whitespace-separated words with no
// overlap. Empty windows are dropped.
func SplitWords(text string, n int) []string {
	if n <= 0 {
		n = DefaultChunkWords
	}
	words := strings.Fields(text)
	var out []string
	for i := 0; i < len(words); i += n {
		end := min(i+n, len(words))
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out
}

// ChunkTranscript splits one transcript into chunks named <source>_chunk_<i>.
// An empty source is reported as "unknown".
func ChunkTranscript(source, text string, words int) []models.Chunk {
	if source == "" {
		source = "unknown"
	}
	parts := SplitWords(text, words)
	chunks := make([]models.Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, models.Chunk{
			ChunkID: fmt.Sprintf("%s_chunk_%d", source, i),
			Source:  source,
			Text:    p,
		})
	}
	return chunks
}
