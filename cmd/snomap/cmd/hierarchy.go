package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hierarchyAllRows bool

var parentsCmd = &cobra.Command{
	Use:   "parents <cui|name>",
	Short: "Show direct is-a parents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParents,
}

var childrenCmd = &cobra.Command{
	Use:   "children <cui|name>",
	Short: "Show direct is-a children",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChildren,
}

var ancestorsCmd = &cobra.Command{
	Use:   "ancestors <cui|name>",
	Short: "Show the full is-a closure above a concept",
	Long:  "Every concept reachable by walking is-a edges upward, with its minimum hop count. The starting concept is not listed.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAncestors,
}

func init() {
	parentsCmd.Flags().BoolVar(&hierarchyAllRows, "all", false, "Show alternate name rows too, not just primary names")
	childrenCmd.Flags().BoolVar(&hierarchyAllRows, "all", false, "Show alternate name rows too, not just primary names")
}

func runParents(cmd *cobra.Command, args []string) error {
	q, err := querier()
	if err != nil {
		return err
	}
	cui, err := resolveArg(q, args)
	if err != nil {
		return err
	}

	concepts, err := q.Parents(cui, !hierarchyAllRows)
	if err != nil {
		return err
	}
	fmt.Print(formatConceptList(concepts))
	return nil
}

func runChildren(cmd *cobra.Command, args []string) error {
	q, err := querier()
	if err != nil {
		return err
	}
	cui, err := resolveArg(q, args)
	if err != nil {
		return err
	}

	concepts, err := q.Children(cui, !hierarchyAllRows)
	if err != nil {
		return err
	}
	fmt.Print(formatConceptList(concepts))
	return nil
}

func runAncestors(cmd *cobra.Command, args []string) error {
	q, err := querier()
	if err != nil {
		return err
	}
	cui, err := resolveArg(q, args)
	if err != nil {
		return err
	}

	ancestors, err := q.Ancestors(cui)
	if err != nil {
		return err
	}
	fmt.Print(formatAncestors(ancestors))
	return nil
}
