// Package main is the entry point for the staas-order CLI.
package main

import (
	"os"

	"staas-order/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
