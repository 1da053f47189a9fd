package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carrick/snomap/internal/ports"
)

var conceptCmd = &cobra.Command{
	Use:   "concept <cui|name>",
	Short: "Show a concept's primary name and all name rows",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConcept,
}

func runConcept(cmd *cobra.Command, args []string) error {
	q, err := querier()
	if err != nil {
		return err
	}

	cui, err := resolveArg(q, args)
	if err != nil {
		return err
	}

	primary, err := q.PrimaryConcept(cui)
	if err != nil {
		return err
	}
	fmt.Printf("%s⚡ %s%s\n", colorBold, primary.Name, colorReset)

	rows, err := q.ConceptRows(cui)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Println("  " + formatConcept(r))
	}
	return nil
}

// resolveArg interprets the argument as a cui when numeric, otherwise
// resolves it as a name that must hit exactly one cui.
func resolveArg(q ports.Querier, args []string) (int64, error) {
	text := strings.Join(args, " ")
	if cui, err := strconv.ParseInt(text, 10, 64); err == nil {
		return cui, nil
	}
	cui, ok, err := q.FindUniqueCUI(text)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%q does not resolve to a single concept", text)
	}
	return cui, nil
}
