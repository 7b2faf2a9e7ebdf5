// Package chunk splits note text into overlapping chunks for embedding.
//
// The splitter walks a separator hierarchy (paragraph, line, word,
// character) and recursively breaks oversized pieces with lower-priority
// separators, greedily packing small pieces back together up to the chunk
// size while retaining a tail of pieces as the overlap seed for the next
// chunk. The output is deterministic for a given input and configuration.
package chunk

import "strings"

// DefaultSeparators is the standard hierarchy for prose: paragraphs,
// lines, words, then single characters as the last resort.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter produces overlapping substrings of at most ChunkSize characters.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewSplitter creates a splitter with the default separator hierarchy.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// Split chunks text. Pathological inputs (empty text, nil separators)
// yield an empty slice; Split never fails.
func (s *Splitter) Split(text string) []string {
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	return s.split(text, seps)
}

// split recursively chunks text using the first applicable separator.
func (s *Splitter) split(text string, separators []string) []string {
	if text == "" {
		return nil
	}

	sep, rest := chooseSeparator(text, separators)
	pieces := splitOn(text, sep)

	var chunks []string
	var run []string

	flush := func() {
		if len(run) > 0 {
			chunks = append(chunks, s.merge(run, sep)...)
			run = nil
		}
	}

	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if len(piece) < s.ChunkSize {
			run = append(run, piece)
			continue
		}
		// Oversized piece: flush the pending run, then break the piece
		// down with the remaining lower-priority separators.
		flush()
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	flush()

	return chunks
}

// chooseSeparator picks the first separator present in text. The empty
// separator always matches and means character-level splitting.
func chooseSeparator(text string, separators []string) (sep string, rest []string) {
	for i, cand := range separators {
		if cand == "" {
			return "", nil
		}
		if strings.Contains(text, cand) {
			return cand, separators[i+1:]
		}
	}
	return "", nil
}

// splitOn splits text on sep; the empty separator splits into runes.
func splitOn(text, sep string) []string {
	if sep == "" {
		return strings.Split(text, "")
	}
	return strings.Split(text, sep)
}

// merge greedily packs a run of small pieces into chunks of at most
// ChunkSize characters, joined by sep. After emitting a chunk, pieces are
// evicted from the front of the buffer until it is within ChunkOverlap,
// so the retained tail seeds the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := len(sep)

	var chunks []string
	var buf []string
	total := 0

	emit := func() {
		joined := strings.TrimSpace(strings.Join(buf, sep))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, piece := range pieces {
		addition := len(piece)
		if len(buf) > 0 {
			addition += sepLen
		}
		if total+addition > s.ChunkSize && len(buf) > 0 {
			emit()
			// Retain only enough trailing pieces to serve as overlap.
			for total > s.ChunkOverlap && len(buf) > 0 {
				total -= len(buf[0])
				if len(buf) > 1 {
					total -= sepLen
				}
				buf = buf[1:]
			}
		}
		buf = append(buf, piece)
		total += len(piece)
		if len(buf) > 1 {
			total += sepLen
		}
	}
	if len(buf) > 0 {
		emit()
	}
	return chunks
}
