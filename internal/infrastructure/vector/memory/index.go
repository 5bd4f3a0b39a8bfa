// Package memory provides a brute-force in-memory VectorIndex. It backs
// local development and tests, mirroring the behavior contract of the
// Qdrant adapter: cosine similarity, a minimum-similarity floor, stable
// insertion-order tie-breaking, and revision-based atomic swap.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

type entry struct {
	chunk    domain.Chunk
	docName  string
	ownerID  string
	revision string
	seq      int
}

type Index struct {
	mu        sync.RWMutex
	entries   []entry
	dimension int
	nextSeq   int
}

func NewIndex() *Index {
	return &Index{}
}

func (idx *Index) Upsert(_ context.Context, doc *domain.Document, chunks []domain.Chunk, revision string) error {
	if len(chunks) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, chunk := range chunks {
		if idx.dimension == 0 {
			idx.dimension = len(chunk.Embedding)
		}
		if len(chunk.Embedding) != idx.dimension {
			return fmt.Errorf("embedding dimension %d, index requires %d", len(chunk.Embedding), idx.dimension)
		}
	}

	for _, chunk := range chunks {
		next := entry{
			chunk:    chunk,
			docName:  doc.DisplayName,
			ownerID:  doc.OwnerID,
			revision: revision,
		}
		// Replace on chunk ID match, keeping the original insertion
		// position so tie-breaking stays stable across re-upserts.
		if i, ok := idx.locate(chunk.ID); ok {
			next.seq = idx.entries[i].seq
			idx.entries[i] = next
			continue
		}
		next.seq = idx.nextSeq
		idx.nextSeq++
		idx.entries = append(idx.entries, next)
	}
	return nil
}

func (idx *Index) locate(chunkID string) (int, bool) {
	for i, e := range idx.entries {
		if e.chunk.ID == chunkID {
			return i, true
		}
	}
	return 0, false
}

func (idx *Index) Search(
	_ context.Context,
	vector []float32,
	k int,
	minSimilarity float64,
	scope domain.SearchScope,
) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		e   entry
		sim float64
	}
	candidates := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		if scope.OwnerID != "" && e.ownerID != scope.OwnerID {
			continue
		}
		sim := cosineSimilarity(vector, e.chunk.Embedding)
		if sim < minSimilarity {
			continue
		}
		candidates = append(candidates, scored{e: e, sim: sim})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].e.seq < candidates[j].e.seq
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]domain.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.ScoredChunk{
			DocumentID:   c.e.chunk.DocumentID,
			DocumentName: c.e.docName,
			ChunkID:      c.e.chunk.ID,
			Ordinal:      c.e.chunk.Ordinal,
			Content:      c.e.chunk.Content,
			Similarity:   c.sim,
		})
	}
	return out, nil
}

func (idx *Index) DeleteByDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = idx.filter(func(e entry) bool {
		return e.chunk.DocumentID != documentID
	})
	return nil
}

func (idx *Index) DropStale(_ context.Context, documentID, keepRevision string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = idx.filter(func(e entry) bool {
		return e.chunk.DocumentID != documentID || e.revision == keepRevision
	})
	return nil
}

func (idx *Index) filter(keep func(entry) bool) []entry {
	out := idx.entries[:0]
	for _, e := range idx.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
