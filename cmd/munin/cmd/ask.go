package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/query"
)

// tokenSink returns a streaming token callback for interactive
// terminals, plus a flag set once any token arrives. Canned answers
// never stream, so the flag decides whether the answer still needs
// printing afterwards.
func tokenSink(a *app) (backend.TokenFunc, *bool) {
	streamed := new(bool)
	if !a.printer.Streaming() {
		return nil, streamed
	}
	return func(tok string) {
		*streamed = true
		a.printer.Token(tok)
	}, streamed
}

func finishAnswer(a *app, res query.Result, streamed *bool) {
	if *streamed {
		a.printer.EndStream()
	} else {
		a.printer.Answer(res.Answer)
	}
	a.printer.Sources(res.Sources)
}

func newAskCmd() *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the vault",
		Long: `Embed the question, retrieve the closest note chunks, and answer from
that context alone, citing the notes used. On an interactive terminal
the answer streams token by token.

Use --tag to restrict retrieval to notes carrying at least one of the
given tags.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			onToken, streamed := tokenSink(a)

			res, err := a.engine().Ask(ctx, question, query.AskOptions{RequiredTags: tags}, onToken)
			if err != nil {
				return err
			}
			finishAnswer(a, res, streamed)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Only retrieve from notes with this tag (repeatable)")
	return cmd
}
