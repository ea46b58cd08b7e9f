package main

import (
	"os"

	"github.com/arthur-debert/dotsmith/pkg/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
