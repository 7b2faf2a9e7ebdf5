package notes

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes deterministic note IDs derived from vault paths.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("munin-note"))

// Provider walks a vault directory and yields parsed notes.
type Provider struct {
	root string
}

// NewProvider creates a provider rooted at the vault directory.
func NewProvider(root string) *Provider {
	return &Provider{root: root}
}

// All walks the vault and returns every parseable Markdown note.
// Hidden directories (including .munin) are skipped. A file that fails
// to read is logged and skipped; it never aborts the walk.
func (p *Provider) All(ctx context.Context) ([]*Note, error) {
	var out []*Note
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != p.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		note, err := p.Load(path)
		if err != nil {
			slog.Warn("skipping unreadable note",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if note != nil {
			out = append(out, note)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Load reads and parses a single note file. It returns (nil, nil) when
// the file parses but lacks the identity fields required for indexing.
func (p *Provider) Load(path string) (*Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	r := parse(data)
	if r.title == "" {
		r.title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	// Required-field gating: a note must end up with a title to be
	// addressable by wikilinks and citations.
	if r.title == "" {
		return nil, nil
	}

	id := stringField(r.frontmatter, "id")
	if id == "" {
		id = uuid.NewSHA1(idNamespace, []byte(rel)).String()
	}

	return &Note{
		ID:            id,
		Modified:      strconv.FormatInt(info.ModTime().UnixNano(), 10),
		Title:         r.title,
		Description:   r.description,
		Aliases:       r.aliases,
		Tags:          r.tags,
		Content:       r.body,
		Location:      rel,
		OutgoingLinks: r.links,
	}, nil
}

// ByTitle walks the vault looking for the note whose title or alias
// matches name. Returns nil when no note matches.
func (p *Provider) ByTitle(ctx context.Context, name string) (*Note, error) {
	all, err := p.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range all {
		if n.Title == name {
			return n, nil
		}
	}
	for _, n := range all {
		for _, a := range n.Aliases {
			if a == name {
				return n, nil
			}
		}
	}
	return nil, nil
}
