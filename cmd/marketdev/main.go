package main

import (
	"os"

	"github.com/steven3002/datamarket-go/internal/devcli/commands"
)

// Entry point for the developer CLI: marketdev.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
