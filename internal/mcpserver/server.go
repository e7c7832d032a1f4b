// Package mcpserver exposes the knowledge base to MCP clients over
// stdio: semantic search, ledger listings, and sync status.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/parksync/internal/connection"
	"github.com/ziadkadry99/parksync/internal/knowledge"
	"github.com/ziadkadry99/parksync/internal/syncer"
	"github.com/ziadkadry99/parksync/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server over the knowledge base.
type Server struct {
	store       vectordb.VectorStore
	sources     *knowledge.Store
	connections *connection.Store
	tracker     *syncer.Tracker
	runs        *syncer.RunStore
	agentID     string
	mcp         *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(store vectordb.VectorStore, sources *knowledge.Store, connections *connection.Store, tracker *syncer.Tracker, runs *syncer.RunStore, agentID string) *Server {
	s := &Server{
		store:       store,
		sources:     sources,
		connections: connections,
		tracker:     tracker,
		runs:        runs,
		agentID:     agentID,
	}

	s.mcp = server.NewMCPServer(
		"parksync",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
	s.mcp.AddTool(listKnowledgeSourcesTool, s.handleListKnowledgeSources)
	s.mcp.AddTool(syncStatusTool, s.handleSyncStatus)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
