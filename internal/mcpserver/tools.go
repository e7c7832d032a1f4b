package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// searchKnowledgeTool defines the search_knowledge MCP tool.
var searchKnowledgeTool = mcp.NewTool("search_knowledge",
	mcp.WithDescription("Search the agent's knowledge base semantically. Returns relevant passages from synced listings, documents, and crawled pages."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("kind",
		mcp.Description("Filter results by source kind"),
		mcp.Enum("document", "url", "synced"),
	),
)

// listKnowledgeSourcesTool defines the list_knowledge_sources MCP tool.
var listKnowledgeSourcesTool = mcp.NewTool("list_knowledge_sources",
	mcp.WithDescription("List the sources in the knowledge ledger with their processing status and chunk counts."),
)

// syncStatusTool defines the sync_status MCP tool.
var syncStatusTool = mcp.NewTool("sync_status",
	mcp.WithDescription("Report the connected site, current sync states, and the most recent import run per content kind."),
)
