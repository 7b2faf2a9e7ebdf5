package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFrontmatterAndBody(t *testing.T) {
	data := []byte(`---
title: Zettelkasten
description: How the slip-box works
aliases:
  - Slip-box
tags: [pkm, method]
---

The method links atomic notes via [[Evergreen Notes]] and [[Atomic Notes|atoms]].
Also see #workflow notes.
`)
	r := parse(data)

	assert.Equal(t, "Zettelkasten", r.title)
	assert.Equal(t, "How the slip-box works", r.description)
	assert.Equal(t, []string{"Slip-box"}, r.aliases)
	assert.Equal(t, []string{"pkm", "method", "workflow"}, r.tags)
	assert.Equal(t, []string{"Evergreen Notes", "Atomic Notes"}, r.links)
	assert.Contains(t, r.body, "The method links")
	assert.NotContains(t, r.body, "title:")
}

func TestParseNoFrontmatter(t *testing.T) {
	r := parse([]byte("# My Heading\n\nplain body"))
	assert.Equal(t, "My Heading", r.title)
	assert.Equal(t, "# My Heading\n\nplain body", r.body)
	assert.Nil(t, r.frontmatter)
}

func TestParseInvalidYAMLFallsBackToBody(t *testing.T) {
	data := []byte("---\n: bad [yaml\n---\nbody text")
	r := parse(data)
	assert.Contains(t, r.body, "body text")
}

func TestExtractLinksDedupAndRefs(t *testing.T) {
	body := "[[A]] [[A]] [[B|alias]] [[C#Section]] [[ ]]"
	assert.Equal(t, []string{"A", "B", "C"}, extractLinks(body))
}

func TestExtractTagsMergesFrontmatterAndInline(t *testing.T) {
	fm := map[string]any{"tags": []any{"alpha", "beta"}}
	tags := extractTags("text with #beta and #gamma", fm)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, tags)
}
