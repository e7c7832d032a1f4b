package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/vectordb"
)

// handleSearchKnowledge performs semantic search over the vector store.
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	var filter *vectordb.SearchFilter
	if kind := request.GetString("kind", ""); kind != "" {
		filter = &vectordb.SearchFilter{Kind: &kind}
	}

	results, err := s.store.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The knowledge base may be empty; add sources or run a sync first."), nil
	}

	return mcp.NewToolResultText(vectordb.FormatResults(results)), nil
}

// handleListKnowledgeSources renders the ledger as a flat listing.
func (s *Server) handleListKnowledgeSources(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sources, err := s.sources.ListAll(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing sources failed: %v", err)), nil
	}
	if len(sources) == 0 {
		return mcp.NewToolResultText("The knowledge ledger is empty."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d knowledge source(s):\n\n", len(sources)))
	for _, src := range sources {
		indent := ""
		if src.ParentID != nil {
			indent = "  "
		}
		sb.WriteString(fmt.Sprintf("%s- %s (%s, %s", indent, src.Name, src.SourceType, src.Status))
		if src.ChunkCount > 0 {
			sb.WriteString(fmt.Sprintf(", %d chunks", src.ChunkCount))
		}
		sb.WriteString(")")
		if src.Error != "" {
			sb.WriteString(fmt.Sprintf(" error: %s", src.Error))
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSyncStatus reports the connection and per-kind sync state.
func (s *Server) handleSyncStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conn, err := s.connections.GetByAgent(ctx, s.agentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading connection failed: %v", err)), nil
	}
	if conn == nil {
		return mcp.NewToolResultText("No site is connected."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Connected site: %s\n", conn.SiteURL))
	if conn.VerifiedAt != nil {
		sb.WriteString(fmt.Sprintf("Last verified: %s\n", conn.VerifiedAt.Format("2006-01-02 15:04 MST")))
	}

	for _, kind := range []config.SyncKind{config.KindCommunity, config.KindHome} {
		sb.WriteString(fmt.Sprintf("\n%s sync: %s\n", kind, s.tracker.State(conn.ID, kind)))
		runs, err := s.runs.ListRecent(ctx, conn.ID, kind, 1)
		if err != nil || len(runs) == 0 {
			sb.WriteString("  no runs yet\n")
			continue
		}
		run := runs[0]
		sb.WriteString(fmt.Sprintf("  last run: %d imported, %d updated, %d unchanged, %d failed of %d remote\n",
			run.Result.Imported, run.Result.Updated, run.Result.Unchanged, run.Result.Failed, run.Result.TotalRemote))
		if run.Error != "" {
			sb.WriteString(fmt.Sprintf("  error: %s\n", run.Error))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}
