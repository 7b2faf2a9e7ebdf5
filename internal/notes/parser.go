package notes

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	headingRe  = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// parseResult holds the output of parsing one Markdown file.
type parseResult struct {
	frontmatter map[string]any
	body        string
	title       string
	description string
	aliases     []string
	tags        []string
	links       []string
}

// parse extracts front matter, body, wikilinks, and tags from raw
// Markdown bytes. Invalid YAML front matter is tolerated: the whole
// content becomes the body.
func parse(data []byte) *parseResult {
	fm, body := splitFrontmatter(data)

	r := &parseResult{
		frontmatter: fm,
		body:        body,
		title:       stringField(fm, "title"),
		description: stringField(fm, "description"),
		aliases:     stringListField(fm, "aliases"),
		links:       extractLinks(body),
	}
	if r.title == "" {
		if m := headingRe.FindStringSubmatch(body); m != nil {
			r.title = strings.TrimSpace(m[1])
		}
	}
	r.tags = extractTags(body, fm)
	return r
}

// splitFrontmatter separates YAML front matter (between leading ---
// delimiters) from the Markdown body. Without front matter the entire
// content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// extractLinks returns deduplicated wikilink targets, stripping aliases
// ([[Target|Alias]] resolves to Target).
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		// Drop heading/block references: [[Target#Section]].
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects #tags from the body and the front matter "tags" field.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(s string) {
		s = strings.TrimSpace(strings.TrimPrefix(s, "#"))
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, t := range stringListField(fm, "tags") {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// stringField reads a scalar string front matter field.
func stringField(fm map[string]any, key string) string {
	if fm == nil {
		return ""
	}
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// stringListField reads a front matter field that may be a string or a
// list of strings.
func stringListField(fm map[string]any, key string) []string {
	if fm == nil {
		return nil
	}
	switch v := fm[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}
