package embeddings

import (
	"fmt"
	"os"
	"strings"
)

// defaultOllamaDimensions matches nomic-embed-text, the model the docs
// recommend for local use.
const defaultOllamaDimensions = 768

// New selects an embedder from the configured model name. Names with
// an "ollama/" prefix run against a local Ollama instance; everything
// else is treated as an OpenAI model and needs OPENAI_API_KEY.
func New(model, ollamaURL string) (Embedder, error) {
	if name, ok := strings.CutPrefix(model, "ollama/"); ok {
		if name == "" {
			return nil, fmt.Errorf("ollama model name is empty")
		}
		return newOllamaEmbedder(name, defaultOllamaDimensions, ollamaURL), nil
	}

	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set; set it or pick an ollama/ embedding model")
	}
	return newOpenAIEmbedder(key, model), nil
}
