// Package main provides the ldmgen command.
package main

import (
	"os"

	"github.com/leapstack-labs/ldmgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
