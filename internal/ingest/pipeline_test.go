package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/connection"
	"github.com/ziadkadry99/parksync/internal/db"
	"github.com/ziadkadry99/parksync/internal/knowledge"
	"github.com/ziadkadry99/parksync/internal/syncer"
	"github.com/ziadkadry99/parksync/internal/vectordb"
)

// memStore is an in-memory vectordb.VectorStore for pipeline tests.
type memStore struct {
	docs map[string]vectordb.Document
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]vectordb.Document)}
}

func (m *memStore) AddDocuments(_ context.Context, docs []vectordb.Document) error {
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return nil
}

func (m *memStore) Search(context.Context, string, int, *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	return nil, nil
}

func (m *memStore) DeleteBySourceID(_ context.Context, sourceID string) error {
	for id, d := range m.docs {
		if d.Metadata.SourceID == sourceID {
			delete(m.docs, id)
		}
	}
	return nil
}

func (m *memStore) Persist(context.Context, string) error { return nil }
func (m *memStore) Load(context.Context, string) error    { return nil }
func (m *memStore) Count() int                            { return len(m.docs) }

func (m *memStore) bySource(sourceID string) []vectordb.Document {
	var out []vectordb.Document
	for _, d := range m.docs {
		if d.Metadata.SourceID == sourceID {
			out = append(out, d)
		}
	}
	return out
}

func TestIngestDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	content := "# Community Rules\n\nQuiet hours run from 10pm to 7am.\n\nGuests may stay up to 14 days."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	store := newMemStore()
	pipeline := NewPipeline(store, nil)

	src := &knowledge.Source{ID: "doc1", SourceType: knowledge.SourceDocument, Name: "rules.md", Location: path}
	chunks, hash, err := pipeline.Ingest(context.Background(), src)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if chunks < 1 {
		t.Fatalf("chunks = %d, want at least 1", chunks)
	}
	if hash == "" {
		t.Fatal("content hash is empty")
	}

	docs := store.bySource("doc1")
	if len(docs) != chunks {
		t.Fatalf("stored %d docs, reported %d", len(docs), chunks)
	}
	joined := ""
	for _, d := range docs {
		joined += d.Content
		if d.Metadata.Kind != "document" {
			t.Errorf("doc kind = %q, want document", d.Metadata.Kind)
		}
	}
	if !strings.Contains(joined, "Quiet hours") {
		t.Fatal("markdown content did not survive conversion")
	}
	if strings.Contains(joined, "# Community") {
		t.Fatal("markdown markup leaked into chunks")
	}
}

func TestIngestRefreshReplacesChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("first version"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	store := newMemStore()
	pipeline := NewPipeline(store, nil)
	src := &knowledge.Source{ID: "n1", SourceType: knowledge.SourceDocument, Name: "note.txt", Location: path}

	_, firstHash, err := pipeline.Ingest(context.Background(), src)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if err := os.WriteFile(path, []byte("second version, now longer"), 0o644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}
	_, secondHash, err := pipeline.Ingest(context.Background(), src)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if firstHash == secondHash {
		t.Fatal("hash did not change with content")
	}

	for _, d := range store.bySource("n1") {
		if strings.Contains(d.Content, "first version") {
			t.Fatal("stale chunk survived the refresh")
		}
	}
}

func TestIngestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Amenities</h1><p>Pool, clubhouse, and fitness center.</p></body></html>"))
	}))
	defer srv.Close()

	store := newMemStore()
	pipeline := NewPipeline(store, nil)
	src := &knowledge.Source{ID: "u1", SourceType: knowledge.SourceURL, Name: "amenities", Location: srv.URL}

	chunks, _, err := pipeline.Ingest(context.Background(), src)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if chunks != 1 {
		t.Fatalf("chunks = %d, want 1", chunks)
	}
	docs := store.bySource("u1")
	if !strings.Contains(docs[0].Content, "fitness center") {
		t.Fatalf("chunk content = %q", docs[0].Content)
	}
	if strings.Contains(docs[0].Content, "<p>") {
		t.Fatal("HTML markup leaked into the chunk")
	}
}

func TestIngestSyncedRecords(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	conn, err := connection.NewStore(database).Upsert(context.Background(), &connection.SiteConnection{
		AgentID: "default",
		SiteURL: "https://paradisecove.example.com",
	})
	if err != nil {
		t.Fatalf("seeding connection: %v", err)
	}

	records := syncer.NewStore(database)
	err = records.Insert(context.Background(), &syncer.SyncRecord{
		ConnectionID:   conn.ID,
		Kind:           config.KindHome,
		SourceRecordID: "7",
		Fields: map[string]any{
			"name":  "Unit 7",
			"price": int64(8490000),
			"beds":  float64(3),
		},
		ContentFingerprint: "fp",
	})
	if err != nil {
		t.Fatalf("seeding record: %v", err)
	}

	store := newMemStore()
	pipeline := NewPipeline(store, records)
	src := &knowledge.Source{
		ID:         "s1",
		SourceType: knowledge.SourceSynced,
		Name:       "Homes",
		Location:   conn.ID + "/home",
	}

	if _, _, err := pipeline.Ingest(context.Background(), src); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	docs := store.bySource("s1")
	if len(docs) == 0 {
		t.Fatal("no chunks stored")
	}
	text := docs[0].Content
	if !strings.Contains(text, "Unit 7") {
		t.Fatalf("chunk missing record name: %q", text)
	}
	if !strings.Contains(text, "$84900.00") {
		t.Fatalf("price not rendered from minor units: %q", text)
	}
}

func TestRemovePurgesAllSources(t *testing.T) {
	store := newMemStore()
	_ = store.AddDocuments(context.Background(), []vectordb.Document{
		{ID: "a-0", Metadata: vectordb.DocumentMetadata{SourceID: "a"}},
		{ID: "b-0", Metadata: vectordb.DocumentMetadata{SourceID: "b"}},
		{ID: "c-0", Metadata: vectordb.DocumentMetadata{SourceID: "c"}},
	})
	pipeline := NewPipeline(store, nil)

	if err := pipeline.Remove(context.Background(), []string{"a", "c"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("Count = %d, want 1", store.Count())
	}
}

func TestExtractLinks(t *testing.T) {
	body := `<html><body>
		<a href="/about">About</a>
		<a href="https://example.com/homes">Homes</a>
		<a href="https://other.example.org/away">External</a>
		<a href="/about#team">Fragment</a>
		<a href="mailto:info@example.com">Mail</a>
	</body></html>`

	links := extractLinks(body, "https://example.com/")
	want := map[string]bool{
		"https://example.com/about": true,
		"https://example.com/homes": true,
	}
	if len(links) != len(want) {
		t.Fatalf("links = %v, want %d in-domain links", links, len(want))
	}
	for _, l := range links {
		if !want[l] {
			t.Errorf("unexpected link %s", l)
		}
	}
}

func TestContentHashMatchesIngest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policies.md")
	if err := os.WriteFile(path, []byte("Pets must be leashed in common areas."), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	store := newMemStore()
	pipeline := NewPipeline(store, nil)
	src := &knowledge.Source{ID: "pol1", SourceType: knowledge.SourceDocument, Name: "policies.md", Location: path}

	_, ingested, err := pipeline.Ingest(context.Background(), src)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	hash, err := pipeline.ContentHash(context.Background(), src)
	if err != nil {
		t.Fatalf("ContentHash: %v", err)
	}
	if hash != ingested {
		t.Fatalf("ContentHash = %s, Ingest recorded %s", hash, ingested)
	}
	if store.Count() == 0 {
		t.Fatal("ingest stored no chunks")
	}

	// Hashing must not touch the stored chunks.
	before := store.Count()
	if _, err := pipeline.ContentHash(context.Background(), src); err != nil {
		t.Fatalf("ContentHash: %v", err)
	}
	if store.Count() != before {
		t.Fatal("ContentHash modified the vector store")
	}

	if err := os.WriteFile(path, []byte("Pets must be leashed. Two pet maximum per home."), 0o644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}
	drifted, err := pipeline.ContentHash(context.Background(), src)
	if err != nil {
		t.Fatalf("ContentHash after edit: %v", err)
	}
	if drifted == ingested {
		t.Fatal("edited content produced the same hash")
	}
}
