package knowledge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/parksync/internal/db"
)

// fakeIngester counts calls and can fail specific sources by name. The
// upstream map overrides the content hash a source currently hashes
// to, so tests can simulate drift.
type fakeIngester struct {
	mu        sync.Mutex
	ingests   []string
	removed   []string
	failing   map[string]bool
	upstream  map[string]string
	hashCalls int
	block     chan struct{}
}

func (f *fakeIngester) Ingest(_ context.Context, src *Source) (int, string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingests = append(f.ingests, src.Name)
	if f.failing[src.Name] {
		return 0, "", fmt.Errorf("unreachable content")
	}
	return 3, f.hashFor(src.Name), nil
}

func (f *fakeIngester) Remove(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, ids...)
	return nil
}

func (f *fakeIngester) ContentHash(_ context.Context, src *Source) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashCalls++
	if f.failing[src.Name] {
		return "", fmt.Errorf("unreachable content")
	}
	return f.hashFor(src.Name), nil
}

func (f *fakeIngester) hashFor(name string) string {
	if h, ok := f.upstream[name]; ok {
		return h
	}
	return "hash-" + name
}

func setupLedger(t *testing.T) (*Ledger, *Store, *fakeIngester) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := NewStore(database)
	ing := &fakeIngester{failing: make(map[string]bool)}
	return NewLedger(store, ing), store, ing
}

func TestAddProcessesSource(t *testing.T) {
	ledger, _, ing := setupLedger(t)

	src, err := ledger.Add(context.Background(), &Source{
		SourceType: SourceDocument,
		Name:       "community-rules.md",
		Location:   "/tmp/community-rules.md",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if src.Status != StatusReady {
		t.Fatalf("status = %q, want ready", src.Status)
	}
	if src.ChunkCount != 3 {
		t.Fatalf("chunk count = %d, want 3", src.ChunkCount)
	}
	if src.LastSyncedAt == nil {
		t.Fatal("last synced at was not set")
	}
	if len(ing.ingests) != 1 {
		t.Fatalf("ingest calls = %d, want 1", len(ing.ingests))
	}
}

func TestAddRecordsFailure(t *testing.T) {
	ledger, _, ing := setupLedger(t)
	ing.failing["dead-link"] = true

	src, err := ledger.Add(context.Background(), &Source{
		SourceType: SourceURL,
		Name:       "dead-link",
		Location:   "https://paradisecove.example.com/gone",
	})
	if err == nil {
		t.Fatal("expected a processing error")
	}
	if src == nil || src.Status != StatusError {
		t.Fatalf("source = %+v, want error status", src)
	}
	if src.Error == "" {
		t.Fatal("error message was not recorded")
	}
}

func TestProcessSkipsWhileProcessing(t *testing.T) {
	ledger, store, ing := setupLedger(t)

	created, err := store.Create(context.Background(), &Source{
		SourceType: SourceURL,
		Name:       "slow-page",
		Location:   "https://paradisecove.example.com/about",
	})
	if err != nil {
		t.Fatalf("creating source: %v", err)
	}

	ing.block = make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ledger.Process(context.Background(), created.ID)
	}()

	// Wait for the first run to claim the source.
	deadline := time.Now().Add(2 * time.Second)
	for {
		src, err := store.Get(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("loading source: %v", err)
		}
		if src.Status == StatusProcessing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("source never entered processing")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A second trigger must be a no-op, not a queued run.
	if err := ledger.Process(context.Background(), created.ID); err != nil {
		t.Fatalf("concurrent Process: %v", err)
	}
	close(ing.block)
	wg.Wait()

	if len(ing.ingests) != 1 {
		t.Fatalf("ingest calls = %d, want 1", len(ing.ingests))
	}
}

func TestDeleteCascadesToChildren(t *testing.T) {
	ledger, store, ing := setupLedger(t)

	root, err := store.Create(context.Background(), &Source{
		SourceType: SourceURL,
		Name:       "site crawl",
		Location:   "https://paradisecove.example.com",
	})
	if err != nil {
		t.Fatalf("creating root: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, err := store.Create(context.Background(), &Source{
			ParentID:   &root.ID,
			SourceType: SourceURL,
			Name:       fmt.Sprintf("page-%d", i),
			Location:   fmt.Sprintf("https://paradisecove.example.com/p/%d", i),
		})
		if err != nil {
			t.Fatalf("creating child: %v", err)
		}
	}

	if err := ledger.Delete(context.Background(), root.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	remaining, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("listing sources: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining sources = %d, want 0 (no orphans)", len(remaining))
	}
	if len(ing.removed) != 4 {
		t.Fatalf("vector purge got %d ids, want 4", len(ing.removed))
	}
}

func TestDeleteChildVerifiesRelation(t *testing.T) {
	ledger, store, _ := setupLedger(t)

	root, _ := store.Create(context.Background(), &Source{SourceType: SourceURL, Name: "crawl A"})
	other, _ := store.Create(context.Background(), &Source{SourceType: SourceURL, Name: "crawl B"})
	child, _ := store.Create(context.Background(), &Source{
		ParentID: &root.ID, SourceType: SourceURL, Name: "page",
	})

	if err := ledger.DeleteChild(context.Background(), other.ID, child.ID); err == nil {
		t.Fatal("deleting a child through the wrong root should fail")
	}
	if err := ledger.DeleteChild(context.Background(), root.ID, child.ID); err != nil {
		t.Fatalf("DeleteChild: %v", err)
	}
}

func TestRetrainCountsOutcomes(t *testing.T) {
	ledger, store, ing := setupLedger(t)
	ing.failing["bad"] = true

	for _, name := range []string{"good-1", "good-2", "bad"} {
		if _, err := store.Create(context.Background(), &Source{SourceType: SourceDocument, Name: name}); err != nil {
			t.Fatalf("creating source: %v", err)
		}
	}

	var progressCalls int
	result, err := ledger.Retrain(context.Background(), func(done, total int, _ *Source, _ error) {
		progressCalls++
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("Retrain: %v", err)
	}
	if result.Success != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 2 success and 1 failed", result)
	}
	if progressCalls != 3 {
		t.Fatalf("progress calls = %d, want 3", progressCalls)
	}
}

func TestRetrainReprocessesCrawlChildren(t *testing.T) {
	ledger, store, ing := setupLedger(t)

	root, _ := store.Create(context.Background(), &Source{SourceType: SourceURL, Name: "crawl"})
	for _, name := range []string{"page-a", "page-b"} {
		_, _ = store.Create(context.Background(), &Source{ParentID: &root.ID, SourceType: SourceURL, Name: name})
	}

	var total int
	result, err := ledger.Retrain(context.Background(), func(_, t int, _ *Source, _ error) { total = t })
	if err != nil {
		t.Fatalf("Retrain: %v", err)
	}
	// The crawl counts as one unit of work even though both pages run.
	if result.Success != 1 || total != 1 {
		t.Fatalf("success = %d, total = %d, want 1 and 1", result.Success, total)
	}
	if len(ing.ingests) != 2 {
		t.Fatalf("ingest calls = %d, want 2 (one per page)", len(ing.ingests))
	}
	for _, name := range ing.ingests {
		if name == "crawl" {
			t.Fatal("crawl root was ingested as content")
		}
	}
}

// fakeRefresher records which roots were re-walked.
type fakeRefresher struct {
	refreshed []string
}

func (f *fakeRefresher) Refresh(_ context.Context, _ *Ledger, root *Source) error {
	f.refreshed = append(f.refreshed, root.Name)
	return nil
}

func TestRetrainRefreshesCrawlRootsViaRefresher(t *testing.T) {
	ledger, store, ing := setupLedger(t)
	ref := &fakeRefresher{}
	ledger.SetRefresher(ref)

	root, _ := store.Create(context.Background(), &Source{SourceType: SourceURL, Name: "crawl"})
	_, _ = store.Create(context.Background(), &Source{ParentID: &root.ID, SourceType: SourceURL, Name: "page"})
	_, _ = store.Create(context.Background(), &Source{SourceType: SourceDocument, Name: "handbook.md"})

	result, err := ledger.Retrain(context.Background(), nil)
	if err != nil {
		t.Fatalf("Retrain: %v", err)
	}
	if result.Success != 2 {
		t.Fatalf("success = %d, want 2", result.Success)
	}
	if len(ref.refreshed) != 1 || ref.refreshed[0] != "crawl" {
		t.Fatalf("refreshed roots = %v, want [crawl]", ref.refreshed)
	}
	// The childless document goes through the ingester, not the crawler.
	if len(ing.ingests) != 1 || ing.ingests[0] != "handbook.md" {
		t.Fatalf("ingests = %v, want [handbook.md]", ing.ingests)
	}
}

func TestIsSourceOutdatedOnContentDrift(t *testing.T) {
	ledger, _, ing := setupLedger(t)
	now := time.Now()
	recent := now.Add(-30 * time.Minute)
	stale := now.Add(-26 * time.Hour)

	ready := func(name string, syncedAt time.Time, interval string) *Source {
		return &Source{
			Name:            name,
			SourceType:      SourceURL,
			Status:          StatusReady,
			LastContentHash: "hash-" + name,
			LastSyncedAt:    &syncedAt,
			RefreshInterval: interval,
		}
	}

	// Upstream content unchanged: fresh on both branches.
	if ledger.IsSourceOutdated(context.Background(), ready("about", recent, "daily"), now) {
		t.Fatal("unchanged source reported outdated")
	}

	// Upstream content drifted: outdated even though the interval has
	// not elapsed.
	ing.upstream = map[string]string{"about": "hash-about-v2"}
	if !ledger.IsSourceOutdated(context.Background(), ready("about", recent, "daily"), now) {
		t.Fatal("drifted content not reported outdated")
	}

	// Interval elapsed wins without a content fetch.
	calls := ing.hashCalls
	if !ledger.IsSourceOutdated(context.Background(), ready("about", stale, "daily"), now) {
		t.Fatal("stale interval not reported outdated")
	}
	if ing.hashCalls != calls {
		t.Fatal("interval check should not fetch content")
	}

	// Unreachable upstream: leave the source alone.
	ing.failing["gone"] = true
	if ledger.IsSourceOutdated(context.Background(), ready("gone", recent, "daily"), now) {
		t.Fatal("unreachable source reported outdated")
	}
}

func TestIsOutdated(t *testing.T) {
	now := time.Now()
	recent := now.Add(-30 * time.Minute)
	stale := now.Add(-26 * time.Hour)

	cases := []struct {
		name string
		src  Source
		want bool
	}{
		{"manual never outdated", Source{RefreshInterval: "manual", LastSyncedAt: &stale}, false},
		{"daily fresh", Source{RefreshInterval: "daily", LastSyncedAt: &recent}, false},
		{"daily stale", Source{RefreshInterval: "daily", LastSyncedAt: &stale}, true},
		{"never synced", Source{RefreshInterval: "daily"}, true},
		{"hourly fresh", Source{RefreshInterval: "hourly_1", LastSyncedAt: &recent}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.src.IsOutdated(now); got != tc.want {
				t.Fatalf("IsOutdated = %v, want %v", got, tc.want)
			}
		})
	}
}
