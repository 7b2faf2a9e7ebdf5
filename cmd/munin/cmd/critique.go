package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newCritiqueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "critique <note title>",
		Short: "Argue against a note using related notes",
		Long: `Have the chat model play devil's advocate against a note, drawing
counterpoints from its semantically closest neighbors in the vault.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}

			onToken, streamed := tokenSink(a)
			res, err := a.engine().Critique(ctx, args[0], onToken)
			if err != nil {
				return err
			}
			finishAnswer(a, res, streamed)
			return nil
		},
	}
	return cmd
}
