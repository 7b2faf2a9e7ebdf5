package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newUniqueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unique <note title or text>",
		Short: "Check whether an idea is already covered",
		Long: `Test an idea against the vault for redundancy. An argument matching an
existing note title reuses its stored embedding; anything else is
embedded as free text. Matches must clear a stricter similarity bar
than plain retrieval, and a clean miss reports the idea as unique
without consulting the chat model.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}

			onToken, streamed := tokenSink(a)
			res, err := a.engine().CheckUnique(ctx, strings.Join(args, " "), onToken)
			if err != nil {
				return err
			}
			finishAnswer(a, res, streamed)
			return nil
		},
	}
	return cmd
}
