// Package main provides the timeline CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/timeline/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
