package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search concept names",
	Long:  "Exact name match first, then qualified (disorder/finding) match, then substring. Case-insensitive.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := querier()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	concepts, err := q.FindConcepts(text)
	if err != nil {
		return err
	}

	fmt.Print(formatConceptList(concepts))
	return nil
}
