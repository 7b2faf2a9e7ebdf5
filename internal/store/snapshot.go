package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"

	"github.com/solvheim/munin/internal/apperr"
)

// SnapshotVersion is the current snapshot schema version. A snapshot
// written under any other version is discarded on load; there is no
// migration logic.
const SnapshotVersion = 1

// snapshot is the on-disk representation of the index.
type snapshot struct {
	Version int      `json:"version"`
	Config  Config   `json:"config"`
	Chunks  []*Chunk `json:"chunks"`
}

// Persist writes the index to path as a single JSON snapshot. It is a
// no-op when the index is not dirty. The write goes through a temp file
// and rename so a crash never leaves a truncated snapshot, and an
// advisory file lock guards against a second munin process writing
// concurrently.
func (idx *Index) Persist(path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.dirty {
		return nil
	}

	snap := snapshot{
		Version: SnapshotVersion,
		Config:  idx.config,
		Chunks:  make([]*Chunk, 0, len(idx.chunks)),
	}
	// Deterministic chunk order: notes sorted by id, chunks by index.
	noteIDs := make([]string, 0, len(idx.byNote))
	for id := range idx.byNote {
		noteIDs = append(noteIDs, id)
	}
	sort.Strings(noteIDs)
	for _, noteID := range noteIDs {
		for _, cid := range idx.byNote[noteID] {
			if c, ok := idx.chunks[cid]; ok {
				snap.Chunks = append(snap.Chunks, c)
			}
		}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return apperr.New(apperr.CodeSnapshotIO, "encoding snapshot", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.New(apperr.CodeSnapshotIO, "creating snapshot directory", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return apperr.New(apperr.CodeSnapshotIO, "locking snapshot", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.New(apperr.CodeSnapshotIO, "writing snapshot", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return apperr.New(apperr.CodeSnapshotIO, "replacing snapshot", err)
	}

	idx.dirty = false
	slog.Debug("snapshot persisted",
		slog.String("path", path),
		slog.Int("chunks", len(snap.Chunks)))
	return nil
}

// Load replaces the index contents from the snapshot at path. A missing
// file, a version mismatch, or a corrupt snapshot all start the index
// empty: "no usable data" is never a fatal condition for loading.
func (idx *Index) Load(path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.reset()
	idx.config = Config{}
	idx.dirty = false

	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return apperr.New(apperr.CodeSnapshotIO, "locking snapshot", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperr.New(apperr.CodeSnapshotIO, fmt.Sprintf("reading snapshot %s", path), err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		slog.Warn("snapshot unusable, starting empty",
			slog.String("path", path),
			slog.String("code", apperr.GetCode(err)),
			slog.String("error", err.Error()))
		return nil
	}

	idx.config = snap.Config
	byNote := make(map[string][]*Chunk)
	for _, c := range snap.Chunks {
		byNote[c.Metadata.NoteID] = append(byNote[c.Metadata.NoteID], c)
	}
	for noteID, chunks := range byNote {
		idx.insertLocked(noteID, chunks)
	}
	idx.dirty = false
	return nil
}

// decodeSnapshot validates raw snapshot bytes. Corruption and version
// drift carry distinct codes so the load path can log which one struck.
func decodeSnapshot(data []byte) (*snapshot, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, apperr.New(apperr.CodeSnapshotCorrupt, "parsing snapshot", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, apperr.New(apperr.CodeSnapshotVersion,
			fmt.Sprintf("snapshot version %d, want %d", snap.Version, SnapshotVersion), nil)
	}
	return &snap, nil
}

// insertLocked is Upsert without locking or dirty tracking, for load.
func (idx *Index) insertLocked(noteID string, chunks []*Chunk) {
	ordered := make([]*Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Metadata.ChunkIndex < ordered[j].Metadata.ChunkIndex
	})

	ids := make([]string, 0, len(ordered))
	for _, c := range ordered {
		idx.chunks[c.ID] = c
		ids = append(ids, c.ID)
	}
	idx.byNote[noteID] = ids

	meta := &ordered[0].Metadata
	idx.byTitle[meta.Title] = noteID
	for _, target := range meta.LinkList() {
		idx.byLink[target] = appendUnique(idx.byLink[target], noteID)
	}
}
