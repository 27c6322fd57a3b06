// Package index implements the in-memory vector similarity index.
//
// Vectors are unit-normalised at insertion so query-time scoring is a
// plain dot product. Snapshots are immutable once sealed; a knowledge
// base reload builds a fresh snapshot and swaps it into the registry,
// leaving in-flight searches on a consistent view.
package index

import (
	"math"
	"sort"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// Hit is one similarity search result.
type Hit struct {
	// Ref is the matched chunk.
	Ref domain.Chunk

	// Score is the cosine similarity to the query.
	Score float64
}

// Snapshot is an immutable vector index for one tenant. Entries keep
// their insertion order, which breaks score ties deterministically.
type Snapshot struct {
	dim     int
	vectors [][]float32
	refs    []domain.Chunk
}

// Builder accumulates entries for a snapshot under construction.
type Builder struct {
	dim     int
	vectors [][]float32
	refs    []domain.Chunk
}

// NewBuilder creates a builder for vectors of the given dimension.
func NewBuilder(dim int) *Builder {
	return &Builder{dim: dim}
}

// Add inserts a vector with its chunk reference. The vector is copied
// and unit-normalised; a dimension mismatch is rejected.
func (b *Builder) Add(vector []float32, ref domain.Chunk) error {
	if len(vector) != b.dim {
		return domain.ErrDimensionMismatch
	}
	b.vectors = append(b.vectors, Normalize(vector))
	b.refs = append(b.refs, ref)
	return nil
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int { return len(b.vectors) }

// Seal produces the immutable snapshot. The builder must not be used
// afterwards.
func (b *Builder) Seal() *Snapshot {
	return &Snapshot{dim: b.dim, vectors: b.vectors, refs: b.refs}
}

// Empty returns an empty snapshot for the given dimension.
func Empty(dim int) *Snapshot {
	return &Snapshot{dim: dim}
}

// Len returns the number of indexed entries.
func (s *Snapshot) Len() int { return len(s.refs) }

// Dimensions returns the vector dimension of the snapshot.
func (s *Snapshot) Dimensions() int { return s.dim }

// Refs returns the chunk references in insertion order. The returned
// slice is the snapshot's own; callers must not modify it.
func (s *Snapshot) Refs() []domain.Chunk { return s.refs }

// Vectors returns the normalised vectors in insertion order. The
// returned slice is the snapshot's own; callers must not modify it.
func (s *Snapshot) Vectors() [][]float32 { return s.vectors }

// Search returns up to k entries ordered by descending score. Ties are
// broken by insertion order, earlier entry first. An empty snapshot
// returns an empty result, not an error.
func (s *Snapshot) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != s.dim {
		return nil, domain.ErrDimensionMismatch
	}
	if k <= 0 || len(s.refs) == 0 {
		return []Hit{}, nil
	}

	q := Normalize(query)

	type scored struct {
		idx   int
		score float64
	}
	all := make([]scored, len(s.vectors))
	for i, v := range s.vectors {
		all[i] = scored{idx: i, score: dot(v, q)}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].idx < all[j].idx
	})

	if k > len(all) {
		k = len(all)
	}
	hits := make([]Hit, k)
	for i := 0; i < k; i++ {
		hits[i] = Hit{Ref: s.refs[all[i].idx], Score: all[i].score}
	}
	return hits, nil
}

// Normalize returns a unit-length copy of v. A zero vector is returned
// as an all-zero copy rather than dividing by zero.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
