package main

import (
	"os"

	"github.com/tsm-sh/tsm/internal/cmd"
)

func main() {
	// Execute prints the error itself before returning it.
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
