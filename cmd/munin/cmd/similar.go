package cmd

import (
	"github.com/spf13/cobra"

	"github.com/solvheim/munin/internal/query"
)

func newSimilarCmd() *cobra.Command {
	var excludeLinked bool

	cmd := &cobra.Command{
		Use:   "similar <note title>",
		Short: "Find notes semantically close to a note",
		Long: `Rank other notes by semantic similarity to the given note, using its
stored embedding. No backend call is made.

Use --exclude-linked to hide notes already connected to it in either
link direction, leaving only undiscovered neighbors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			res, err := a.engine().Similar(cmd.Context(), args[0], query.SimilarOptions{
				ExcludeLinked: excludeLinked,
			})
			if err != nil {
				return err
			}
			a.printer.Answer(res.Answer)
			return nil
		},
	}

	cmd.Flags().BoolVar(&excludeLinked, "exclude-linked", false, "Hide notes already linked to or from the note")
	return cmd
}
