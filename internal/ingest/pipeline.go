// Package ingest turns knowledge sources into embedded chunks: read or
// fetch the content, split it, and write the chunks to the vector
// store keyed by source id.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/knowledge"
	"github.com/ziadkadry99/parksync/internal/syncer"
	"github.com/ziadkadry99/parksync/internal/vectordb"
)

// Pipeline implements knowledge.Ingester over the vector store.
type Pipeline struct {
	store   vectordb.VectorStore
	records *syncer.Store
	client  *http.Client
}

// NewPipeline wires the ingestion pipeline. records may be nil when no
// site is connected; synced sources then fail with a clear error.
func NewPipeline(store vectordb.VectorStore, records *syncer.Store) *Pipeline {
	return &Pipeline{store: store, records: records, client: &http.Client{}}
}

// Ingest processes one source: load its content, chunk, embed, store.
// Old chunks for the source are dropped first so a refresh never leaves
// stale content behind.
func (p *Pipeline) Ingest(ctx context.Context, src *knowledge.Source) (int, string, error) {
	text, err := p.loadContent(ctx, src)
	if err != nil {
		return 0, "", err
	}

	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:])

	chunks := SplitText(text, chunkTokens)
	if len(chunks) == 0 {
		return 0, hash, fmt.Errorf("source has no content")
	}

	if err := p.store.DeleteBySourceID(ctx, src.ID); err != nil {
		return 0, hash, fmt.Errorf("clearing old chunks: %w", err)
	}

	now := time.Now().UTC()
	docs := make([]vectordb.Document, len(chunks))
	for i, chunk := range chunks {
		parentID := ""
		if src.ParentID != nil {
			parentID = *src.ParentID
		}
		docs[i] = vectordb.Document{
			ID:      fmt.Sprintf("%s-%d", src.ID, i),
			Content: chunk,
			Metadata: vectordb.DocumentMetadata{
				SourceID:    src.ID,
				ParentID:    parentID,
				Kind:        string(src.SourceType),
				Name:        src.Name,
				Chunk:       i,
				ContentHash: hash,
				LastUpdated: now,
			},
		}
	}
	if err := p.store.AddDocuments(ctx, docs); err != nil {
		return 0, hash, fmt.Errorf("storing chunks: %w", err)
	}
	return len(docs), hash, nil
}

// ContentHash fetches the source's current content and hashes it
// without touching the vector store. The ledger compares the result
// against what was last ingested to spot upstream drift.
func (p *Pipeline) ContentHash(ctx context.Context, src *knowledge.Source) (string, error) {
	text, err := p.loadContent(ctx, src)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]), nil
}

// Remove purges all chunks belonging to the given sources.
func (p *Pipeline) Remove(ctx context.Context, sourceIDs []string) error {
	for _, id := range sourceIDs {
		if err := p.store.DeleteBySourceID(ctx, id); err != nil {
			return fmt.Errorf("purging chunks of %s: %w", id, err)
		}
	}
	return nil
}

func (p *Pipeline) loadContent(ctx context.Context, src *knowledge.Source) (string, error) {
	switch src.SourceType {
	case knowledge.SourceDocument:
		data, err := os.ReadFile(src.Location)
		if err != nil {
			return "", fmt.Errorf("reading document: %w", err)
		}
		ext := strings.ToLower(filepath.Ext(src.Location))
		if ext == ".md" || ext == ".markdown" {
			return MarkdownToText(data)
		}
		if ext == ".html" || ext == ".htm" {
			return syncer.StripHTML(string(data)), nil
		}
		return string(data), nil

	case knowledge.SourceURL:
		text, _, err := FetchPage(ctx, p.client, src.Location)
		return text, err

	case knowledge.SourceSynced:
		return p.renderSynced(ctx, src)

	default:
		return "", fmt.Errorf("unknown source type %q", src.SourceType)
	}
}

// renderSynced turns the canonical records of one (connection, kind)
// into prose the embedder can work with. The source location encodes
// the pair as "<connection id>/<kind>".
func (p *Pipeline) renderSynced(ctx context.Context, src *knowledge.Source) (string, error) {
	if p.records == nil {
		return "", fmt.Errorf("no site connection available")
	}
	connectionID, kind, ok := strings.Cut(src.Location, "/")
	if !ok {
		return "", fmt.Errorf("malformed synced source location %q", src.Location)
	}

	records, err := p.records.List(ctx, connectionID, config.SyncKind(kind))
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no synced records for %s", kind)
	}

	var sections []string
	for _, rec := range records {
		sections = append(sections, renderRecord(kind, rec.Fields))
	}
	return strings.Join(sections, "\n\n"), nil
}

// renderRecord formats one record's fields as labeled lines, keys
// sorted so the output (and its hash) is stable.
func renderRecord(kind string, fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	lines = append(lines, fmt.Sprintf("[%s]", kind))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, renderValue(k, fields[k])))
	}
	return strings.Join(lines, "\n")
}

func renderValue(key string, v any) string {
	switch val := v.(type) {
	case []any:
		var parts []string
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(val, ", ")
	case float64:
		// Prices are stored in minor units.
		if strings.Contains(key, "price") || strings.Contains(key, "rent") {
			return fmt.Sprintf("$%.2f", val/100)
		}
		return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.2f", val), "0"), ".0")
	case int64:
		if strings.Contains(key, "price") || strings.Contains(key, "rent") {
			return fmt.Sprintf("$%.2f", float64(val)/100)
		}
		return fmt.Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}
