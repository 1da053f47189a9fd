package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carrick/snomap/internal/adapters/socket"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show loaded release and table sizes",
	RunE:  runStats,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check daemon health",
	RunE:  runHealth,
}

func runStats(cmd *cobra.Command, args []string) error {
	root := definitionsRoot()
	client := socket.NewClient(socket.SocketPath(root))

	if client.Ping() {
		stats, err := client.Stats()
		if err != nil {
			return err
		}
		printStats(stats.Releases, stats.ConceptCount, stats.CUICount, stats.EdgeCount, "daemon")
		return nil
	}

	engine, err := localEngine(root)
	if err != nil {
		return err
	}
	store := engine.Store()
	printStats(store.Releases(), store.ConceptCount(), store.CUICount(), store.EdgeCount(), "direct")
	return nil
}

func printStats(releases []string, concepts, cuis, edges int, source string) {
	fmt.Printf("%s⚡ %d releases%s (%s) %s[%s]%s\n",
		colorBold, len(releases), colorReset, strings.Join(releases, ", "), colorGray, source, colorReset)
	fmt.Printf("  %d name rows │ %d concepts │ %d edges\n", concepts, cuis, edges)
}

func runHealth(cmd *cobra.Command, args []string) error {
	root := definitionsRoot()
	client := socket.NewClient(socket.SocketPath(root))

	if !client.Ping() {
		fmt.Println("⚡ daemon is not running")
		return nil
	}

	health, err := client.Health()
	if err != nil {
		return err
	}

	fmt.Printf("%s⚡ %s%s │ up %s │ %d names │ %d edges\n",
		colorBold, health.Status, colorReset, health.Uptime, health.ConceptCount, health.EdgeCount)
	if health.Stale {
		fmt.Printf("  %s⚠ release files changed on disk — restart the daemon to reload%s\n", colorYellow, colorReset)
	}
	return nil
}
