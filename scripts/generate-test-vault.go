//go:build ignore

// Package main generates a synthetic note vault for benchmarking.
// Usage: go run scripts/generate-test-vault.go -notes 500 -output testdata/vault
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numNotes  = flag.Int("notes", 500, "Number of notes to generate")
	outputDir = flag.String("output", "testdata/vault", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var topics = []string{
	"habit formation", "spaced repetition", "compound interest",
	"deliberate practice", "systems thinking", "decision journals",
	"deep work", "note taking", "mental models", "feedback loops",
	"opportunity cost", "second-order effects", "attention management",
	"knowledge gardens", "slow productivity", "default choices",
}

var tags = []string{
	"productivity", "learning", "finance", "philosophy", "health",
	"writing", "career", "reading",
}

var sentences = []string{
	"The core idea is that small consistent actions outweigh occasional heroic efforts.",
	"Most of the benefit comes from the first deliberate hour, not the tenth.",
	"This connects to the broader question of how feedback shapes behavior.",
	"A useful test is whether the habit survives a bad week.",
	"The opposite failure mode is optimizing a system nobody needs.",
	"Writing the idea down forces a precision that thinking alone never does.",
	"The cost is invisible until it compounds, which is exactly why it is ignored.",
	"In practice the environment beats willpower almost every time.",
	"The interesting part is what happens at the boundaries between domains.",
	"Revisiting this note after a month usually changes my mind about half of it.",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	titles := make([]string, *numNotes)
	for i := range titles {
		topic := topics[rng.Intn(len(topics))]
		titles[i] = fmt.Sprintf("%s %d", strings.Title(topic), i)
	}

	for i, title := range titles {
		var b strings.Builder

		b.WriteString("---\n")
		fmt.Fprintf(&b, "description: Notes on %s\n", strings.ToLower(title))
		fmt.Fprintf(&b, "tags: [%s, %s]\n",
			tags[rng.Intn(len(tags))], tags[rng.Intn(len(tags))])
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "# %s\n\n", title)

		paragraphs := 2 + rng.Intn(4)
		for p := 0; p < paragraphs; p++ {
			lines := 3 + rng.Intn(4)
			for l := 0; l < lines; l++ {
				b.WriteString(sentences[rng.Intn(len(sentences))])
				b.WriteString(" ")
			}
			// Sprinkle wikilinks to earlier notes.
			if i > 0 && rng.Float64() < 0.6 {
				fmt.Fprintf(&b, "See [[%s]].", titles[rng.Intn(i)])
			}
			b.WriteString("\n\n")
		}

		name := strings.ReplaceAll(strings.ToLower(title), " ", "-") + ".md"
		path := filepath.Join(*outputDir, name)
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	fmt.Printf("generated %d notes in %s\n", *numNotes, *outputDir)
}
