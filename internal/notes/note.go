// Package notes reads a vault of Markdown files and produces fully-formed
// Note values: front matter split off and parsed, wikilinks and tags
// extracted, identity and change token assigned. The indexing core only
// ever sees the Note type; it never touches the filesystem itself.
package notes

// Note is a parsed Markdown note from the vault. It is read-only to the
// indexing core.
type Note struct {
	// ID is the stable identity of the note. Taken from the front matter
	// "id" field when present, otherwise derived deterministically from
	// the vault-relative path.
	ID string

	// Modified is an opaque change token, monotonic per note. Equality
	// against the token recorded at last embedding decides whether the
	// note needs re-embedding; the core never interprets it.
	Modified string

	Title       string
	Description string
	Aliases     []string
	Tags        []string

	// Content is the note body with front matter removed.
	Content string

	// Location is the vault-relative path.
	Location string

	// OutgoingLinks are wikilink targets ([[Target]] or [[Target|alias]])
	// found in the body plus any "links" front matter entries.
	OutgoingLinks []string
}

// EmbeddingText returns the text submitted for chunking and embedding:
// the description (when present) prepended to the content, separated by
// a blank line.
func (n *Note) EmbeddingText() string {
	if n.Description == "" {
		return n.Content
	}
	return n.Description + "\n\n" + n.Content
}
