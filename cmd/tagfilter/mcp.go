// ABOUTME: MCP command to start the MCP server.
// ABOUTME: Runs on stdio for integration with AI agents.

package main

import (
	"context"

	"github.com/harper/tagfilter/internal/db"
	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long:  `Start the Model Context Protocol server for AI agent integration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := context.WithCancel(cmd.Context())
		defer stop()

		ctl := newController(ctx)
		cancel := hub.Subscribe(ctl.HandleChanges)
		defer cancel()

		watcher := db.NewWatcher(dbConn, hub, db.DefaultWatchInterval)
		if err := watcher.Prime(ctx); err != nil {
			logging.For("mcp").Warn("prime local store watcher", "err", err)
		}
		go watcher.Run(ctx)

		server := mcp.NewServer(ctl)
		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
