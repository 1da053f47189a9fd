package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carrick/snomap/internal/adapters/ahocorasick"
	"github.com/carrick/snomap/internal/adapters/prompt"
	"github.com/carrick/snomap/internal/app"
	"github.com/carrick/snomap/internal/domain/mapping"
	"github.com/carrick/snomap/internal/ports"
)

var (
	mapFrom    int
	mapBulk    bool
	clearForce bool
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map freetext condition lists to concepts and groupings",
	Long:  "Works through an input file of freetext conditions: automatic and interactive resolution to concept ids, then interactive grouping. Progress is saved as numbered snapshots next to the input file.",
}

var mapAutoCmd = &cobra.Command{
	Use:   "auto <input-file>",
	Short: "Resolve strings that match exactly one concept",
	Args:  cobra.ExactArgs(1),
	RunE:  runMapAuto,
}

var mapManualCmd = &cobra.Command{
	Use:   "manual <input-file>",
	Short: "Resolve remaining strings interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runMapManual,
}

var mapGroupCmd = &cobra.Command{
	Use:   "group <input-file>",
	Short: "Assign groupings to resolved conditions interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runMapGroup,
}

var mapShowCmd = &cobra.Command{
	Use:   "show <input-file>",
	Short: "Show the current mapping table",
	Args:  cobra.ExactArgs(1),
	RunE:  runMapShow,
}

var mapClearCmd = &cobra.Command{
	Use:   "clear <input-file>",
	Short: "Delete all snapshots for an input file",
	RunE:  runMapClear,
	Args:  cobra.ExactArgs(1),
}

func init() {
	for _, c := range []*cobra.Command{mapAutoCmd, mapManualCmd, mapGroupCmd, mapShowCmd} {
		c.Flags().IntVar(&mapFrom, "from", -1, "Snapshot to start from (-1 latest, 0 input file, N specific)")
	}
	mapAutoCmd.Flags().BoolVar(&mapBulk, "bulk", false, "Single-sweep matching for large input lists (loads tables in-process)")
	mapClearCmd.Flags().BoolVar(&clearForce, "force", false, "Skip confirmation prompt")

	mapCmd.AddCommand(mapAutoCmd)
	mapCmd.AddCommand(mapManualCmd)
	mapCmd.AddCommand(mapGroupCmd)
	mapCmd.AddCommand(mapShowCmd)
	mapCmd.AddCommand(mapClearCmd)
}

// openSession resolves --from: the default -1 resumes the latest snapshot,
// falling back to a fresh read of the input file when none exists yet.
func openSession(inputPath string) (*mapping.State, *mapping.SnapshotStore, error) {
	state, store, err := app.OpenSession(inputPath, mapFrom)
	if mapFrom < 0 && errors.Is(err, mapping.ErrNoSnapshot) {
		return app.OpenSession(inputPath, 0)
	}
	return state, store, err
}

func saveSnapshot(state *mapping.State, store *mapping.SnapshotStore) error {
	path, err := store.Save(state)
	if err != nil {
		return err
	}
	fmt.Printf("%s⚡ saved %s%s\n", colorGray, path, colorReset)
	return nil
}

func runMapAuto(cmd *cobra.Command, args []string) error {
	state, store, err := openSession(args[0])
	if err != nil {
		return err
	}

	var report app.AutoMapReport
	if mapBulk {
		engine, err := localEngine(definitionsRoot())
		if err != nil {
			return err
		}
		report, err = app.AutoMapBulk(state, engine, ahocorasick.NewNameMatcher())
		if err != nil {
			return err
		}
	} else {
		q, err := querier()
		if err != nil {
			return err
		}
		report, err = app.AutoMap(state, q)
		if err != nil {
			return err
		}
	}

	fmt.Printf("%s⚡ %d resolved%s │ %d remaining\n", colorBold, report.Resolved, colorReset, report.Remaining)
	for str, name := range report.Matches {
		fmt.Printf("  %s  →  %s%s%s\n", str, colorGreen, name, colorReset)
	}
	return saveSnapshot(state, store)
}

func runMapManual(cmd *cobra.Command, args []string) error {
	state, store, err := openSession(args[0])
	if err != nil {
		return err
	}
	q, err := querier()
	if err != nil {
		return err
	}

	report, err := app.ManualMap(state, q, prompt.NewTerminal())
	if err != nil {
		return err
	}

	fmt.Printf("%s⚡ %d resolved%s │ %d skipped │ %d remaining\n",
		colorBold, report.Resolved, colorReset, report.Skipped, report.Remaining)
	return saveSnapshot(state, store)
}

func runMapGroup(cmd *cobra.Command, args []string) error {
	state, store, err := openSession(args[0])
	if err != nil {
		return err
	}
	q, err := querier()
	if err != nil {
		return err
	}

	w := &mapping.Workflow{State: state, Querier: q, Presenter: prompt.NewTerminal()}
	summary, err := w.Run()
	if err != nil {
		return err
	}

	fmt.Printf("%s⚡ %d assignments%s │ %d new groupings\n",
		colorBold, summary.NewAssignments, colorReset, summary.NewGroupings)
	if summary.Aborted {
		fmt.Printf("  %saborted — earlier assignments kept%s\n", colorYellow, colorReset)
	}
	return saveSnapshot(state, store)
}

func runMapShow(cmd *cobra.Command, args []string) error {
	state, _, err := openSession(args[0])
	if err != nil {
		return err
	}
	q, err := querier()
	if err != nil {
		return err
	}

	rows, err := state.Rows(q)
	if err != nil {
		return err
	}

	fmt.Printf("%s⚡ %d strings%s │ %d unresolved │ %d groupings\n",
		colorBold, len(rows), colorReset, len(state.Unresolved), len(state.KnownGroupingCUIs()))
	fmt.Print(formatMappingRows(rows))
	return printGroupings(state, q)
}

// printGroupings renders the grouping -> conditions view under the table.
func printGroupings(state *mapping.State, q ports.Querier) error {
	byGrouping := state.GroupingToConditions()
	if len(byGrouping) == 0 {
		return nil
	}
	fmt.Printf("\n%sGroupings:%s\n", colorBold, colorReset)
	for _, g := range state.KnownGroupingCUIs() {
		primary, err := q.PrimaryConcept(g)
		if err != nil {
			return err
		}
		fmt.Printf("  %s%d%s %s: %d conditions\n",
			colorCyan, g, colorReset, primary.Name, len(byGrouping[g]))
	}
	return nil
}

func runMapClear(cmd *cobra.Command, args []string) error {
	if !clearForce {
		fmt.Printf("⚠ This will delete all snapshots for %s. Continue? [y/N] ", args[0])
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("cancelled")
			return nil
		}
	}

	store := mapping.NewSnapshotStore(args[0])
	removed, err := store.Clear(true)
	if err != nil {
		return err
	}
	fmt.Printf("⚡ %d snapshots removed\n", removed)
	return nil
}
