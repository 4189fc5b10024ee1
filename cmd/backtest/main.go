// Package main runs simulation batches from the command line and prints the
// batch report.
package main

import (
	"os"
)

func main() {
	cmd, _ := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
