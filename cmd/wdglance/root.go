package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wdglance.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wdglance",
		Short: "Word at a glance: corpus dashboard for a searched word",
		Long: `wdglance sends a searched word to a configured set of tiles
(concordance, frequency distributions, time distribution, word forms,
matching documents, speeches) backed by KonText, NoSketch Engine, MQuery
and Elasticsearch and collects their results.

Configuration is read from conf.json (server) and wdglance.json (tiles
and layout). Both are looked up in the current directory and then in the
XDG configuration directory. Use 'wdglance init' to create them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-log", false, "Write log records as JSON")
	cmd.PersistentFlags().StringP("server-conf", "s", "",
		"Server configuration path (default: conf.json in current or XDG config directory)")
	cmd.PersistentFlags().StringP("conf", "c", "",
		"Tile configuration path (default: wdglance.json in current or XDG config directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Directory of the cache and query log database (default: XDG data directory)")
	cmd.PersistentFlags().Bool("no-cache", false, "Do not cache backend responses")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewQueryCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
