package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and backend status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			a.printer.Headline("munin status")
			a.printer.Field("vault", a.cfg.VaultPath)
			a.printer.Field("snapshot", a.cfg.SnapshotPath)
			a.printer.Field("notes", fmt.Sprintf("%d", a.idx.NoteCount()))
			a.printer.Field("chunks", fmt.Sprintf("%d", a.idx.TotalChunks()))

			stored := a.idx.Config()
			if stored.EmbeddingModel != "" {
				a.printer.Field("model", stored.EmbeddingModel)
				a.printer.Field("chunking", fmt.Sprintf("%d/%d", stored.ChunkSize, stored.ChunkOverlap))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if a.client.Available(ctx) {
				a.printer.Field("backend", a.cfg.Backend.Host+" (up)")
			} else {
				a.printer.Field("backend", a.cfg.Backend.Host+" (unreachable)")
			}
			return nil
		},
	}
	return cmd
}
