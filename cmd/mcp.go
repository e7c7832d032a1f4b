package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/parksync/internal/knowledge"
	"github.com/ziadkadry99/parksync/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing
knowledge search and sync status tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildStack(true)
		if err != nil {
			return err
		}
		defer s.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "parksync MCP server started on stdio (chunks=%d)\n", s.store.Count())

		srv := mcpserver.NewServer(s.store, knowledge.NewStore(s.db), s.connections, s.tracker, s.runs, s.cfg.AgentID)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
