// Package store holds the in-memory chunk index and its persisted
// snapshot. It owns the primary chunk-id map, the secondary indexes by
// note, title, and link target, and cosine top-K search.
//
// The store assumes a single logical owner: mutations are serialized by
// an internal mutex, reads may run concurrently.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// listSeparator joins list-valued note fields into flat metadata strings.
const listSeparator = ", "

// Config is the configuration a set of stored vectors is valid under.
// Any change to any field invalidates all prior embeddings: vectors from
// different models or chunking parameters are not comparable.
type Config struct {
	EmbeddingModel string `json:"embeddingModel"`
	ChunkSize      int    `json:"chunkSize"`
	ChunkOverlap   int    `json:"chunkOverlap"`
}

// Metadata is the denormalized copy of note fields carried by every
// chunk. It is the only data searched and filtered against; list fields
// are joined so the snapshot stays flat.
type Metadata struct {
	NoteID        string `json:"noteId"`
	Modified      string `json:"modified"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Aliases       string `json:"aliases"`
	Tags          string `json:"tags"`
	OutgoingLinks string `json:"outgoingLinks"`
	ChunkIndex    int    `json:"chunkIndex"`
	TotalChunks   int    `json:"totalChunks"`
	Location      string `json:"location"`
}

// TagList splits the joined tags back into a slice.
func (m *Metadata) TagList() []string {
	return SplitList(m.Tags)
}

// LinkList splits the joined outgoing links back into a slice.
func (m *Metadata) LinkList() []string {
	return SplitList(m.OutgoingLinks)
}

// AliasList splits the joined aliases back into a slice.
func (m *Metadata) AliasList() []string {
	return SplitList(m.Aliases)
}

// Chunk is one embedded substring of a note.
type Chunk struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
	Text      string    `json:"text"`
	Metadata  Metadata  `json:"metadata"`
}

// ChunkID builds the deterministic chunk identity for (noteID, index).
func ChunkID(noteID string, index int) string {
	return fmt.Sprintf("%s#%d", noteID, index)
}

// JoinList flattens a list field for metadata storage.
func JoinList(items []string) string {
	return strings.Join(items, listSeparator)
}

// SplitList is the inverse of JoinList; empty input yields nil.
func SplitList(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, listSeparator)
}

// Index is the in-memory chunk index for one vault.
type Index struct {
	mu sync.RWMutex

	chunks  map[string]*Chunk
	byNote  map[string][]string // note id -> chunk ids, ascending chunk index
	byTitle map[string]string   // title -> note id
	byLink  map[string][]string // link target title -> note ids linking to it

	config Config
	dirty  bool
}

// New creates an empty index.
func New() *Index {
	idx := &Index{}
	idx.reset()
	return idx
}

func (idx *Index) reset() {
	idx.chunks = make(map[string]*Chunk)
	idx.byNote = make(map[string][]string)
	idx.byTitle = make(map[string]string)
	idx.byLink = make(map[string][]string)
}

// Upsert atomically replaces all chunks for a note with the given set.
// An empty chunk set is a no-op. The secondary indexes are rebuilt for
// the note and the index is marked dirty.
func (idx *Index) Upsert(noteID string, chunks []*Chunk) {
	if len(chunks) == 0 {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeNoteLocked(noteID)
	idx.insertLocked(noteID, chunks)
	idx.dirty = true
}

// DeleteByNote removes all chunks for the note from the primary and
// secondary indexes. Unknown notes are a no-op, not an error, and do not
// mark the index dirty.
func (idx *Index) DeleteByNote(noteID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.byNote[noteID]; !ok {
		return
	}
	idx.removeNoteLocked(noteID)
	idx.dirty = true
}

// removeNoteLocked strips a note from every index. Caller holds mu.
func (idx *Index) removeNoteLocked(noteID string) {
	ids, ok := idx.byNote[noteID]
	if !ok {
		return
	}
	var meta *Metadata
	for _, id := range ids {
		if c, ok := idx.chunks[id]; ok && meta == nil {
			meta = &c.Metadata
		}
		delete(idx.chunks, id)
	}
	delete(idx.byNote, noteID)

	if meta != nil {
		if idx.byTitle[meta.Title] == noteID {
			delete(idx.byTitle, meta.Title)
		}
		for _, target := range meta.LinkList() {
			idx.byLink[target] = removeValue(idx.byLink[target], noteID)
			if len(idx.byLink[target]) == 0 {
				delete(idx.byLink, target)
			}
		}
	}
}

// GetByNote returns the note's chunks in chunk-index order, or nil.
func (idx *Index) GetByNote(noteID string) []*Chunk {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := idx.byNote[noteID]
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := idx.chunks[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// GetByTitle returns the chunks of the note with the given title,
// ordered by chunk index, or nil when no such note is indexed.
func (idx *Index) GetByTitle(title string) []*Chunk {
	idx.mu.RLock()
	noteID, ok := idx.byTitle[title]
	idx.mu.RUnlock()
	if !ok {
		return nil
	}
	return idx.GetByNote(noteID)
}

// GetLinksTo returns chunks from other notes whose outgoing links name
// the title or any of its aliases, ordered by (title, chunk index) for
// determinism. Chunks of the target note itself are excluded.
func (idx *Index) GetLinksTo(title string, aliases []string) []*Chunk {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	selfID := idx.byTitle[title]

	noteIDs := make(map[string]struct{})
	targets := append([]string{title}, aliases...)
	for _, target := range targets {
		for _, noteID := range idx.byLink[target] {
			if noteID != selfID {
				noteIDs[noteID] = struct{}{}
			}
		}
	}

	var out []*Chunk
	for noteID := range noteIDs {
		for _, id := range idx.byNote[noteID] {
			if c, ok := idx.chunks[id]; ok {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Metadata.Title != out[j].Metadata.Title {
			return out[i].Metadata.Title < out[j].Metadata.Title
		}
		return out[i].Metadata.ChunkIndex < out[j].Metadata.ChunkIndex
	})
	return out
}

// ModifiedToken returns the change token recorded when the note was
// last embedded, taken from its first chunk. ok is false for notes not
// in the index.
func (idx *Index) ModifiedToken(noteID string) (token string, ok bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, ok := idx.chunks[ChunkID(noteID, 0)]
	if !ok {
		return "", false
	}
	return c.Metadata.Modified, true
}

// NoteIDs returns the ids of all indexed notes in sorted order.
func (idx *Index) NoteIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]string, 0, len(idx.byNote))
	for id := range idx.byNote {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TotalChunks returns the number of stored chunks.
func (idx *Index) TotalChunks() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// NoteCount returns the number of indexed notes.
func (idx *Index) NoteCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byNote)
}

// Config returns the stored index configuration.
func (idx *Index) Config() Config {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.config
}

// SetConfig records the configuration the stored vectors are built under.
func (idx *Index) SetConfig(cfg Config) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.config == cfg {
		return
	}
	idx.config = cfg
	idx.dirty = true
}

// ValidateConfig reports whether cfg is compatible with the stored
// vectors: true when the index is empty or cfg equals the stored config.
func (idx *Index) ValidateConfig(cfg Config) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.chunks) == 0 {
		return true
	}
	return idx.config == cfg
}

// Clear drops all chunks and secondary indexes, keeping the config.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.chunks) == 0 {
		return
	}
	idx.reset()
	idx.dirty = true
}

// Dirty reports whether in-memory state diverges from the last snapshot.
func (idx *Index) Dirty() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dirty
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func removeValue(list []string, v string) []string {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
