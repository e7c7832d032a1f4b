// Package embeddings produces the vectors behind parksync's knowledge
// search. The provider is picked from the configured model name; every
// provider satisfies the same Embedder interface, so the vector store
// never knows which one is behind it.
package embeddings

import "context"

// Embedder turns text into embedding vectors.
type Embedder interface {
	// Embed embeds one or more texts, one vector per text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of the vectors this embedder produces.
	Dimensions() int

	// Name identifies the underlying model.
	Name() string
}
