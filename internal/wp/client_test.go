package wp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"namespace":"wp/v2"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.Probe(context.Background()); err != nil {
		t.Fatalf("Probe: %v", err)
	}

	bad := NewClient(srv.URL + "/missing")
	if err := bad.Probe(context.Background()); err == nil {
		t.Fatal("expected probe failure for bad root")
	}
}

func TestContentTypesMapShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"community": map[string]string{"name": "Communities", "rest_base": "community"},
			"post":      map[string]string{"name": "Posts", "slug": "post", "rest_base": "posts"},
		})
	}))
	defer srv.Close()

	types, err := NewClient(srv.URL).ContentTypes(context.Background())
	if err != nil {
		t.Fatalf("ContentTypes: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(types))
	}

	bySlug := map[string]ContentType{}
	for _, ct := range types {
		bySlug[ct.Slug] = ct
	}
	// Slug falls back to the map key when the descriptor omits it.
	if bySlug["community"].RestBase != "community" {
		t.Errorf("community rest_base = %q", bySlug["community"].RestBase)
	}
}

func TestFetchPage(t *testing.T) {
	records := make([]map[string]any, 7)
	for i := range records {
		records[i] = map[string]any{"id": float64(i + 1), "title": "r"}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		start := (page - 1) * perPage
		if start >= len(records) {
			// WordPress answers 400 for an invalid page number.
			http.Error(w, `{"code":"rest_post_invalid_page_number"}`, http.StatusBadRequest)
			return
		}
		end := start + perPage
		if end > len(records) {
			end = len(records)
		}
		w.Header().Set("X-WP-Total", strconv.Itoa(len(records)))
		json.NewEncoder(w).Encode(records[start:end])
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	p1, err := c.FetchPage(context.Background(), "community", 1, 5)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(p1.Records) != 5 || p1.Total != 7 {
		t.Fatalf("page 1: %d records, total %d", len(p1.Records), p1.Total)
	}

	p2, err := c.FetchPage(context.Background(), "community", 2, 5)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(p2.Records) != 2 {
		t.Fatalf("page 2: %d records", len(p2.Records))
	}

	p3, err := c.FetchPage(context.Background(), "community", 3, 5)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(p3.Records) != 0 {
		t.Fatalf("page 3 should be empty, got %d", len(p3.Records))
	}
}

func TestFetchSampleEmptyEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	sample, err := NewClient(srv.URL).FetchSample(context.Background(), "community")
	if err != nil {
		t.Fatalf("FetchSample: %v", err)
	}
	if sample != nil {
		t.Fatalf("expected nil sample, got %v", sample)
	}
}
