package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/db"
	"github.com/ziadkadry99/parksync/internal/knowledge"
)

func TestCrawlerKeep(t *testing.T) {
	c := NewCrawler(config.CrawlConfig{
		Exclude: []string{"wp-admin/**", "feed/**", "*.pdf", "tag/**"},
	})

	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/", true},
		{"https://example.com/about-us", true},
		{"https://example.com/wp-admin/edit.php", false},
		{"https://example.com/feed/rss", false},
		{"https://example.com/brochure.pdf", false},
		{"https://example.com/tag/homes", false},
	}
	for _, tc := range cases {
		if got := c.Keep(tc.url); got != tc.want {
			t.Errorf("Keep(%s) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestCrawlerKeepIncludeList(t *testing.T) {
	c := NewCrawler(config.CrawlConfig{
		Include: []string{"communities/**", "homes/**"},
		Exclude: []string{"homes/sold/**"},
	})

	if !c.Keep("https://example.com/communities/paradise-cove") {
		t.Error("included path was dropped")
	}
	if c.Keep("https://example.com/blog/news") {
		t.Error("path outside the include list was kept")
	}
	if c.Keep("https://example.com/homes/sold/unit-12") {
		t.Error("exclude did not win over include")
	}
}

func TestCrawlerKeepDefaults(t *testing.T) {
	c := NewCrawler(config.CrawlConfig{Exclude: config.DefaultExcludes})
	if c.Keep("https://example.com/wp-admin/options.php") {
		t.Error("default excludes did not drop wp-admin")
	}
	if !c.Keep("https://example.com/amenities") {
		t.Error("default excludes dropped a content page")
	}
}

func TestRefreshPicksUpNewPages(t *testing.T) {
	var linkNew atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		links := `<a href="/amenities">amenities</a>`
		if linkNew.Load() {
			links += `<a href="/events">events</a>`
		}
		fmt.Fprintf(w, "<html><body><p>Welcome to Paradise Cove.</p>%s</body></html>", links)
	})
	mux.HandleFunc("/amenities", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>Pool, clubhouse, and a dog park.</p></body></html>")
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>Bingo every Thursday night.</p></body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	ledger := knowledge.NewLedger(knowledge.NewStore(database), NewPipeline(newMemStore(), nil))

	c := NewCrawler(config.CrawlConfig{})
	root, err := c.Crawl(context.Background(), ledger, srv.URL, "manual")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	children, err := ledger.Store().ListChildren(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("listing children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("children after crawl = %d, want 2", len(children))
	}

	linkNew.Store(true)
	if err := c.Refresh(context.Background(), ledger, root); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	children, err = ledger.Store().ListChildren(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("listing children: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("children after refresh = %d, want 3 (new page added)", len(children))
	}
	seen := map[string]int{}
	for _, child := range children {
		seen[child.Location]++
		if child.Status != knowledge.StatusReady {
			t.Errorf("child %s status = %q, want ready", child.Location, child.Status)
		}
	}
	for loc, n := range seen {
		if n != 1 {
			t.Errorf("page %s registered %d times, want 1", loc, n)
		}
	}
}
