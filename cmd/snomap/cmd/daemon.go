package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carrick/snomap/internal/adapters/socket"
	"github.com/carrick/snomap/internal/app"
)

var daemonNoCache bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the snomap daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	Long:  "Loads all releases into memory and serves queries over a Unix socket.",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonNoCache, "no-cache", false, "Parse release files directly, skip the table cache")
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	root := definitionsRoot()
	sockPath := socket.SocketPath(root)

	// Check if already running
	client := socket.NewClient(sockPath)
	if client.Ping() {
		fmt.Println("⚡ daemon already running")
		return nil
	}

	a, err := app.New(app.Config{DefinitionsRoot: root, NoCache: daemonNoCache})
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if err := a.Start(); err != nil {
		return err
	}

	store := a.Engine.Store()
	fmt.Printf("⚡ snomap daemon started at %s\n", sockPath)
	fmt.Printf("  %d releases │ %d names │ %d edges\n",
		len(store.Releases()), store.ConceptCount(), store.EdgeCount())

	// Wait for a signal or a remote shutdown request
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-a.Server.ShutdownCh():
	}

	fmt.Println("\n⚡ shutting down...")
	return a.Stop()
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	root := definitionsRoot()
	client := socket.NewClient(socket.SocketPath(root))

	if !client.Ping() {
		fmt.Println("⚡ daemon is not running")
		return nil
	}

	if err := client.Shutdown(); err != nil {
		return err
	}

	fmt.Println("⚡ daemon stopped")
	return nil
}
