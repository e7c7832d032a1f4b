package vectordb

import "time"

// Document is one embedded knowledge chunk.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata ties a chunk back to the knowledge ledger.
type DocumentMetadata struct {
	SourceID    string
	ParentID    string
	Kind        string // document, url, synced
	Name        string
	Chunk       int
	ContentHash string
	LastUpdated time.Time
}

// SearchResult pairs a chunk with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by ledger metadata.
type SearchFilter struct {
	Kind     *string
	SourceID *string
	ParentID *string
}
