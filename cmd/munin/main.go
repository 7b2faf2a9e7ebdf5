// Package main provides the entry point for the munin CLI.
package main

import (
	"os"

	"github.com/solvheim/munin/cmd/munin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
