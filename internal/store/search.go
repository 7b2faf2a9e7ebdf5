package store

import (
	"container/heap"
	"math"
	"sort"
)

// Hit is one search result.
type Hit struct {
	Chunk      *Chunk
	Similarity float64
}

// SearchOptions filter candidates before scoring.
type SearchOptions struct {
	// ExcludeNoteIDs skips chunks belonging to these notes.
	ExcludeNoteIDs map[string]struct{}

	// RequiredTags, when non-empty, keeps only chunks whose tag set
	// intersects it.
	RequiredTags map[string]struct{}
}

// Search returns up to topK chunks ranked by cosine similarity to the
// query embedding, descending. Ties resolve by ascending chunk id so
// results are deterministic across runs. Only the current best topK
// candidates are held at any time.
func (idx *Index) Search(query []float32, topK int, opts SearchOptions) []Hit {
	if topK <= 0 || len(query) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	h := &hitHeap{}
	heap.Init(h)

	for id, c := range idx.chunks {
		if _, excluded := opts.ExcludeNoteIDs[c.Metadata.NoteID]; excluded {
			continue
		}
		if len(opts.RequiredTags) > 0 && !tagsIntersect(c.Metadata.TagList(), opts.RequiredTags) {
			continue
		}

		sim := Cosine(query, c.Embedding)
		cand := rankedHit{id: id, hit: Hit{Chunk: c, Similarity: sim}}
		if h.Len() < topK {
			heap.Push(h, cand)
		} else if worse((*h)[0], cand) {
			(*h)[0] = cand
			heap.Fix(h, 0)
		}
	}

	out := make([]Hit, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(rankedHit).hit
	}
	// Heap pop order is ascending; reverse already handled above, but
	// equal-similarity neighbors may still be adjacent out of id order.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	return out
}

// Cosine returns dot(a,b) / (||a||*||b||), or 0 when either norm is
// zero, avoiding NaN on degenerate vectors.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func tagsIntersect(tags []string, required map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := required[t]; ok {
			return true
		}
	}
	return false
}

// rankedHit pairs a hit with its id for deterministic ordering.
type rankedHit struct {
	id  string
	hit Hit
}

// worse reports whether a ranks strictly below b: lower similarity, or
// equal similarity with a greater id.
func worse(a, b rankedHit) bool {
	if a.hit.Similarity != b.hit.Similarity {
		return a.hit.Similarity < b.hit.Similarity
	}
	return a.id > b.id
}

// hitHeap is a min-heap: the root is the current worst candidate.
type hitHeap []rankedHit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)        { *h = append(*h, x.(rankedHit)) }
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
