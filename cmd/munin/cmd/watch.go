package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/solvheim/munin/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the index in sync with the vault",
		Long: `Run an initial incremental index pass, then watch the vault for
changes. Modified notes are re-embedded after a quiet period; deleted
notes are removed. The snapshot is persisted after every applied
change. Stop with Ctrl+C.`,
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
			start := time.Now()
			stats, err := ix.ReindexAll(ctx, false, a.provider)
			if err != nil {
				return err
			}
			a.printer.Stats(stats, a.idx.TotalChunks(), time.Since(start))
			a.flush()

			w, err := watcher.New(a.cfg.VaultPath, a.provider, ix, a.idx, a.flush, watcher.Options{
				Debounce: a.cfg.Index.Debounce,
			})
			if err != nil {
				return err
			}
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	return cmd
}
