// Package main is the entrypoint for the gaitqueuectl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ZoOtMcNoOt/gaitqueue/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
