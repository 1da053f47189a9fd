package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carrick/snomap/internal/adapters/bboltcache"
	"github.com/carrick/snomap/internal/adapters/socket"
	"github.com/carrick/snomap/internal/app"
	"github.com/carrick/snomap/internal/config"
	"github.com/carrick/snomap/internal/domain/ontology"
	"github.com/carrick/snomap/internal/ports"
)

var definitionsFlag string

var rootCmd = &cobra.Command{
	Use:   "snomap",
	Short: "snomap — clinical terminology query engine and condition mapper",
	Long:  "Name search, hierarchy traversal, and freetext-to-concept mapping over terminology releases.",
}

// definitionsRoot resolves the definitions directory from flag, environment,
// or config file.
func definitionsRoot() string {
	root, err := config.ResolveDefinitions(definitionsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return root
}

// querier returns the daemon client when a daemon is reachable, otherwise an
// engine loaded in-process. Either way the caller gets the same interface.
func querier() (ports.Querier, error) {
	root := definitionsRoot()
	client := socket.NewClient(socket.SocketPath(root))
	if client.Ping() {
		return client, nil
	}
	return localEngine(root)
}

// localEngine loads release tables in-process, going through the bbolt cache
// when one can be opened.
func localEngine(root string) (*ontology.Engine, error) {
	cache, err := bboltcache.Open(app.NewPaths(root).DB)
	if err != nil {
		// Cache locked (daemon starting?) or unwritable: parse directly.
		return app.LoadEngine(root, nil)
	}
	defer cache.Close()
	return app.LoadEngine(root, cache)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&definitionsFlag, "definitions", "", "Terminology definitions directory")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(conceptCmd)
	rootCmd.AddCommand(parentsCmd)
	rootCmd.AddCommand(childrenCmd)
	rootCmd.AddCommand(ancestorsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(mapCmd)
}
