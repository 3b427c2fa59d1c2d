// Package main is the entry point for the spotlight CLI.
package main

import (
	"os"

	"github.com/nikbrunner/spotlight/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
