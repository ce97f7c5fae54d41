// Package main provides the entry point for the docidx CLI.
package main

import (
	"os"

	"github.com/docidx/docidx/cmd/docidx/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
