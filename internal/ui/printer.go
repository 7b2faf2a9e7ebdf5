// Package ui renders command output. Interactive terminals get styled,
// streaming output; pipes and CI get plain text.
package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/solvheim/munin/internal/indexer"
	"github.com/solvheim/munin/internal/query"
)

// Printer writes command results to a terminal or pipe.
type Printer struct {
	out    io.Writer
	styles Styles
	tty    bool
}

// NewPrinter creates a printer for the given writer. Styling is enabled
// only for interactive terminals outside CI with NO_COLOR unset.
func NewPrinter(out io.Writer) *Printer {
	tty := IsTTY(out)
	styled := tty && !DetectNoColor() && !DetectCI()

	p := &Printer{out: out, tty: tty, styles: NoColorStyles()}
	if styled {
		p.styles = DefaultStyles()
	}
	return p
}

// Streaming reports whether token-by-token output makes sense here.
func (p *Printer) Streaming() bool {
	return p.tty
}

// Token writes one streamed answer token.
func (p *Printer) Token(tok string) {
	fmt.Fprint(p.out, tok)
}

// EndStream terminates a streamed answer.
func (p *Printer) EndStream() {
	fmt.Fprintln(p.out)
}

// Answer writes a complete (non-streamed) answer.
func (p *Printer) Answer(text string) {
	fmt.Fprintln(p.out, text)
}

// Sources writes the citation list under an answer.
func (p *Printer) Sources(sources []query.SourceInfo) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.styles.Label.Render("Sources:"))
	for _, s := range sources {
		line := fmt.Sprintf("  %s", s.Title)
		if s.Location != "" {
			line += p.styles.Dim.Render(fmt.Sprintf(" (%s)", s.Location))
		}
		fmt.Fprintln(p.out, p.styles.Source.Render(line))
	}
}

// Stats writes the summary of a reindex run.
func (p *Printer) Stats(stats indexer.Stats, totalChunks int, elapsed time.Duration) {
	fmt.Fprintln(p.out, p.styles.Header.Render("Index updated"))
	fmt.Fprintf(p.out, "  new %d, updated %d, unchanged %d, skipped %d, deleted %d, errors %d\n",
		stats.New, stats.Updated, stats.Unchanged, stats.Skipped, stats.Deleted, stats.Errors)
	fmt.Fprintf(p.out, "  %s in %s\n",
		p.styles.Label.Render(fmt.Sprintf("%d chunks", totalChunks)),
		elapsed.Round(time.Millisecond))
	if stats.Errors > 0 {
		fmt.Fprintln(p.out, p.styles.Warning.Render(fmt.Sprintf("  %d notes failed, see log", stats.Errors)))
	}
}

// Progress renders embedding progress in place on a TTY. Plain outputs
// stay quiet; the final stats cover them.
func (p *Printer) Progress(completed, total int) {
	if !p.tty {
		return
	}
	fmt.Fprintf(p.out, "\rembedding %d/%d", completed, total)
	if completed == total {
		fmt.Fprint(p.out, "\r\033[K")
	}
}

// Headline writes a section header.
func (p *Printer) Headline(text string) {
	fmt.Fprintln(p.out, p.styles.Header.Render(text))
}

// Field writes one aligned label/value line.
func (p *Printer) Field(label, value string) {
	fmt.Fprintf(p.out, "  %s %s\n", p.styles.Label.Render(label+":"), value)
}

// Error writes an error message.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.out, p.styles.Error.Render("error: ")+err.Error())
}

// IsTTY checks if the writer is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks the NO_COLOR convention.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks common CI environment markers.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
