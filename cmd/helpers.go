package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/connection"
	"github.com/ziadkadry99/parksync/internal/db"
	"github.com/ziadkadry99/parksync/internal/embeddings"
	"github.com/ziadkadry99/parksync/internal/ingest"
	"github.com/ziadkadry99/parksync/internal/knowledge"
	"github.com/ziadkadry99/parksync/internal/mapper"
	"github.com/ziadkadry99/parksync/internal/syncer"
	"github.com/ziadkadry99/parksync/internal/vectordb"
)

// newOpenAIClient builds a client from the OPENAI_API_KEY env var.
func newOpenAIClient() *openai.Client {
	return openai.NewClient(os.Getenv("OPENAI_API_KEY"))
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `parksync init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w\nRun `parksync init` to reconfigure", err)
	}
	return cfg, nil
}

// openDatabase opens the SQLite database under the configured data dir.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	return db.Open(filepath.Join(cfg.DataDir, "parksync.db"))
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	return embeddings.New(cfg.EmbeddingModel, cfg.OllamaURL)
}

// vectorDir is where the chromem store persists under the data dir.
func vectorDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "vectordb")
}

// loadVectorStore builds the chromem store and restores persisted
// vectors when present. A missing snapshot is fine on first run.
func loadVectorStore(cfg *config.Config, embedder embeddings.Embedder) (*vectordb.ChromemStore, error) {
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	dir := vectorDir(cfg)
	if _, statErr := os.Stat(filepath.Join(dir, "chromem.gob.gz")); statErr == nil {
		if err := store.Load(context.Background(), dir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load vector store from %s: %v\n", dir, err)
		}
	}
	return store, nil
}

// persistVectorStore writes the chromem snapshot back to disk.
func persistVectorStore(cfg *config.Config, store *vectordb.ChromemStore) error {
	dir := vectorDir(cfg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating vector dir: %w", err)
	}
	return store.Persist(context.Background(), dir)
}

// stack bundles the services most commands need.
type stack struct {
	cfg         *config.Config
	db          *db.DB
	connections *connection.Store
	endpoints   *syncer.EndpointStore
	mappings    *mapper.Store
	records     *syncer.Store
	runs        *syncer.RunStore
	tracker     *syncer.Tracker
	orch        *syncer.Orchestrator
	store       *vectordb.ChromemStore
	ledger      *knowledge.Ledger
}

// buildStack wires the full service graph. withVectors controls whether
// the embedder and vector store are constructed; commands that only
// touch SQLite skip them so no API key is needed.
func buildStack(withVectors bool) (*stack, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &stack{
		cfg:         cfg,
		db:          database,
		connections: connection.NewStore(database),
		endpoints:   syncer.NewEndpointStore(database),
		mappings:    mapper.NewStore(database),
		records:     syncer.NewStore(database),
		runs:        syncer.NewRunStore(database),
		tracker:     syncer.NewTracker(),
	}
	s.orch = syncer.NewOrchestrator(s.connections, s.endpoints, s.mappings, s.records, s.runs, s.tracker)

	if withVectors {
		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			database.Close()
			return nil, err
		}
		store, err := loadVectorStore(cfg, embedder)
		if err != nil {
			database.Close()
			return nil, err
		}
		s.store = store
		pipeline := ingest.NewPipeline(store, s.records)
		s.ledger = knowledge.NewLedger(knowledge.NewStore(database), pipeline)
		s.ledger.SetRefresher(ingest.NewCrawler(cfg.Crawl))
	}
	return s, nil
}

func (s *stack) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
