package retrieval

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Kind selects the index implementation.
type Kind string

const (
	// KindFlat is an exact L2 search over one contiguous float32 matrix.
	KindFlat Kind = "flat"
	// KindScan keeps per-chunk float64 vectors and computes distances one by one.
	KindScan Kind = "scan"
	// KindKeyword matches query terms against raw chunk text.
	KindKeyword Kind = "keyword"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFlat, KindScan, KindKeyword:
		return k, nil
	case "":
		return KindFlat, nil
	}
	return "", fmt.Errorf("unknown index kind %q", s)
}

type match struct {
	pos  int
	dist float64
}

// vectorIndex ranks stored vectors by Euclidean distance to a query.
type vectorIndex interface {
	dimension() int
	search(query []float32, k int) []match
}

type flatIndex struct {
	dim  int
	n    int
	data []float32
}

func newFlatIndex(vectors [][]float32) *flatIndex {
	dim := len(vectors[0])
	idx := &flatIndex{dim: dim, n: len(vectors), data: make([]float32, 0, dim*len(vectors))}
	for _, v := range vectors {
		idx.data = append(idx.data, v...)
	}
	return idx
}

func (f *flatIndex) dimension() int { return f.dim }

func (f *flatIndex) search(query []float32, k int) []match {
	out := make([]match, f.n)
	for i := 0; i < f.n; i++ {
		row := f.data[i*f.dim : (i+1)*f.dim]
		var sum float32
		for j, x := range row {
			d := x - query[j]
			sum += d * d
		}
		out[i] = match{pos: i, dist: math.Sqrt(float64(sum))}
	}
	return topK(out, k)
}

type scanIndex struct {
	vectors [][]float64
}

func newScanIndex(vectors [][]float32) *scanIndex {
	idx := &scanIndex{vectors: make([][]float64, len(vectors))}
	for i, v := range vectors {
		row := make([]float64, len(v))
		for j, x := range v {
			row[j] = float64(x)
		}
		idx.vectors[i] = row
	}
	return idx
}

func (s *scanIndex) dimension() int { return len(s.vectors[0]) }

func (s *scanIndex) search(query []float32, k int) []match {
	out := make([]match, len(s.vectors))
	for i, v := range s.vectors {
		var sum float64
		for j, x := range v {
			d := x - float64(query[j])
			sum += d * d
		}
		out[i] = match{pos: i, dist: math.Sqrt(sum)}
	}
	return topK(out, k)
}

// topK sorts ascending by distance, keeping index order on ties.
func topK(ms []match, k int) []match {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].dist < ms[j].dist })
	if k < len(ms) {
		ms = ms[:k]
	}
	return ms
}

// keywordMatch reports whether text contains the first word of query or any
// of its comma-separated phrases.
func keywordMatch(query, text string) bool {
	q := strings.ToLower(query)
	t := strings.ToLower(text)
	if fields := strings.Fields(q); len(fields) > 0 && strings.Contains(t, fields[0]) {
		return true
	}
	for _, phrase := range strings.Split(q, ",") {
		phrase = strings.TrimSpace(phrase)
		if phrase != "" && strings.Contains(t, phrase) {
			return true
		}
	}
	return false
}
