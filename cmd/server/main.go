// Package main runs the HTTP API: interactive sessions, simulation batches,
// batch reports, health and Prometheus metrics.
package main

import (
	"os"
)

func main() {
	loadEnvFile()

	cmd, _ := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
