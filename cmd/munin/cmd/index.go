package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the vault incrementally",
		Long: `Scan the vault and bring the index up to date.

Only notes whose modification token changed since the last run are
re-embedded; notes that vanished from the vault are removed. Changing
the embedding model or chunking parameters invalidates all stored
vectors and triggers a full rebuild.

Use --force to discard the existing index and rebuild from scratch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.flush()

			ix := a.indexer()
			ix.Progress = a.printer.Progress

			start := time.Now()
			stats, err := ix.ReindexAll(ctx, force, a.provider)
			if err != nil {
				return err
			}
			a.printer.Stats(stats, a.idx.TotalChunks(), time.Since(start))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Clear the existing index and rebuild from scratch")
	return cmd
}
