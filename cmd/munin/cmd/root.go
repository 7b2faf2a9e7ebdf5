// Package cmd provides the CLI commands for munin.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solvheim/munin/pkg/version"
)

var (
	cfgFile   string
	vaultFlag string
	logLevel  string
)

// NewRootCmd creates the root command for the munin CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "munin",
		Short: "Semantic index and query engine for a personal note vault",
		Long: `Munin indexes a Markdown note vault into vector embeddings through a
local Ollama instance and answers semantic queries against that index:
plain questions, similar-note discovery, link-aware critique, backlink
synthesis, and redundancy checks.

Everything runs locally. The index is a single JSON snapshot inside the
vault (` + "`.munin/index.json`" + `) that survives restarts and is rebuilt
incrementally as notes change.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("munin version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default munin.yaml, then ~/.config/munin/config.yaml)")
	cmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "Vault root directory (overrides config)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Minimum log level: debug, info, warn, error")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newSimilarCmd())
	cmd.AddCommand(newCritiqueCmd())
	cmd.AddCommand(newBacklinksCmd())
	cmd.AddCommand(newUniqueCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}
