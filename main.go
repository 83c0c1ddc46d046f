package main

import (
	"os"

	"github.com/nholding/tenor/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
