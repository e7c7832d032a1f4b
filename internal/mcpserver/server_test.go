package mcpserver

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/connection"
	"github.com/ziadkadry99/parksync/internal/db"
	"github.com/ziadkadry99/parksync/internal/knowledge"
	"github.com/ziadkadry99/parksync/internal/syncer"
	"github.com/ziadkadry99/parksync/internal/vectordb"
)

// mockStore implements vectordb.VectorStore for testing.
type mockStore struct {
	docs []vectordb.Document
}

func (m *mockStore) AddDocuments(_ context.Context, docs []vectordb.Document) error {
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *mockStore) Search(_ context.Context, _ string, limit int, filter *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	var results []vectordb.SearchResult
	for _, doc := range m.docs {
		if filter != nil && filter.Kind != nil && doc.Metadata.Kind != *filter.Kind {
			continue
		}
		results = append(results, vectordb.SearchResult{
			Document:   doc,
			Similarity: 0.95,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *mockStore) DeleteBySourceID(_ context.Context, _ string) error { return nil }
func (m *mockStore) Persist(_ context.Context, _ string) error          { return nil }
func (m *mockStore) Load(_ context.Context, _ string) error             { return nil }
func (m *mockStore) Count() int                                         { return len(m.docs) }

func setupServer(t *testing.T, store vectordb.VectorStore) (*Server, *db.DB) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	srv := NewServer(store, knowledge.NewStore(database), connection.NewStore(database),
		syncer.NewTracker(), syncer.NewRunStore(database), "default")
	return srv, database
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"search_knowledge", searchKnowledgeTool, "search_knowledge"},
		{"list_knowledge_sources", listKnowledgeSourcesTool, "list_knowledge_sources"},
		{"sync_status", syncStatusTool, "sync_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestHandleSearchKnowledge(t *testing.T) {
	store := &mockStore{
		docs: []vectordb.Document{
			{
				ID:      "1",
				Content: "Pets under 30 pounds are welcome with a signed pet agreement.",
				Metadata: vectordb.DocumentMetadata{
					SourceID: "src1",
					Kind:     "document",
					Name:     "community-rules.md",
				},
			},
		},
	}
	srv, _ := setupServer(t, store)
	ctx := context.Background()

	t.Run("basic search", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "pet policy"}

		result, err := srv.handleSearchKnowledge(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("kind filter excludes mismatches", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "pet policy", "kind": "synced"}

		result, err := srv.handleSearchKnowledge(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleSearchKnowledge(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})
}

func TestHandleListKnowledgeSources(t *testing.T) {
	srv, database := setupServer(t, &mockStore{})
	ctx := context.Background()

	result, err := srv.handleListKnowledgeSources(ctx, mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	if _, err := knowledge.NewStore(database).Create(ctx, &knowledge.Source{
		SourceType: knowledge.SourceDocument,
		Name:       "faq.md",
	}); err != nil {
		t.Fatalf("creating source: %v", err)
	}
	result, err = srv.handleListKnowledgeSources(ctx, mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
}

func TestHandleSyncStatus(t *testing.T) {
	srv, database := setupServer(t, &mockStore{})
	ctx := context.Background()

	// Without a connection.
	result, err := srv.handleSyncStatus(ctx, mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	// With a connection and one recorded run.
	conn, err := connection.NewStore(database).Upsert(ctx, &connection.SiteConnection{
		AgentID: "default",
		SiteURL: "https://paradisecove.example.com",
	})
	if err != nil {
		t.Fatalf("seeding connection: %v", err)
	}
	err = syncer.NewRunStore(database).Record(ctx, &syncer.Run{
		ConnectionID: conn.ID,
		Kind:         config.KindHome,
		Result:       syncer.ImportResult{Imported: 4, Updated: 1, TotalRemote: 5},
	})
	if err != nil {
		t.Fatalf("recording run: %v", err)
	}

	result, err = srv.handleSyncStatus(ctx, mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
}
