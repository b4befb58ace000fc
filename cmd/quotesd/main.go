package main

import (
	"os"

	"github.com/mweber/quotesd/cmd/quotesd/commands"
)

// main is the entry point for the quotesd CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
