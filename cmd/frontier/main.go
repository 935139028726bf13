// Package main is the entry point for the Frontier CLI.
package main

import (
	"os"

	"github.com/aristath/frontier/cmd/frontier/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
