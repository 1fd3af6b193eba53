package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := newServeCmd()
	rootCmd := &cobra.Command{
		Use:   "nebula-chat",
		Short: "Chat session backend with local echo replies",
		Long: `nebula-chat serves a JSON API for chat sessions, memory preference,
document attachments and voice notes.

Configuration is read from CONFIG_FILE (default configs/config.toml) and
environment overrides. Running without a subcommand starts the server.`,
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	rootCmd.AddCommand(serveCmd, newDumpCmd())
	return rootCmd
}
