package vectordb

import "context"

// VectorStore defines the interface for storing and searching knowledge
// chunks by embeddings.
type VectorStore interface {
	// AddDocuments adds or updates chunks in the store.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// DeleteBySourceID removes all chunks belonging to one knowledge source.
	DeleteBySourceID(ctx context.Context, sourceID string) error

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of chunks in the store.
	Count() int
}
