// snomap is a clinical terminology query engine and condition mapper.
// It loads tab-delimited terminology releases, answers name and hierarchy
// queries, and walks freetext condition lists into grouped concept ids.
package main

import (
	"os"

	"github.com/carrick/snomap/cmd/snomap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
