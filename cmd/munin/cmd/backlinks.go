package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newBacklinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backlinks <note title>",
		Short: "Summarize how other notes reference a note",
		Long: `Gather every note linking to the given note (by title or alias) and
have the chat model explain what role it plays across the vault.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}

			onToken, streamed := tokenSink(a)
			res, err := a.engine().Backlinks(ctx, args[0], onToken)
			if err != nil {
				return err
			}
			finishAnswer(a, res, streamed)
			return nil
		},
	}
	return cmd
}
