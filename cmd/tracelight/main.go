// Package main provides the tracelight CLI.
package main

import (
	"os"

	"github.com/tracelight-dev/tracelight/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
