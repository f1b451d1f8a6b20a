package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/crateview/docquery/internal/adapters/driven/ai"
	"github.com/crateview/docquery/internal/adapters/driven/storage/disk"
	storesqlite "github.com/crateview/docquery/internal/adapters/driven/storage/sqlite"
	"github.com/crateview/docquery/internal/chunker"
	"github.com/crateview/docquery/internal/config"
	"github.com/crateview/docquery/internal/core/ports/driven"
	"github.com/crateview/docquery/internal/core/services"
	"github.com/crateview/docquery/internal/extractors"
	"github.com/crateview/docquery/internal/observability"
)

// app wires the full dependency graph for a command invocation.
type app struct {
	cfg *config.Config
	log *zap.Logger

	store     *storesqlite.Store
	vectors   driven.VectorStore
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	history   driven.HistoryStore
	ingest    *services.IngestService
	query     *services.QueryService
	documents *services.DocumentService
}

// newApp loads config and builds every service the commands need.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := observability.NewLogger(observability.LoggerConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateEmbeddingService(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	llm, err := ai.CreateLLMService(cfg.LLM)
	if err != nil {
		return nil, err
	}

	vectors, err := ai.CreateVectorStore(cfg.Vectors, cfg.DataDir, embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	store, err := storesqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	files, err := disk.NewFileStore(cfg.UploadDir())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating file store: %w", err)
	}

	splitter := chunker.New(
		chunker.WithMaxChars(cfg.Ingest.MaxChunkChars),
		chunker.WithOverlap(cfg.Ingest.ChunkOverlap),
	)
	registry := extractors.Defaults()
	docStore := store.DocumentStore()
	history := store.HistoryStore()

	indexer := services.NewIndexerService(splitter, embedder, vectors, log)
	retriever := services.NewRetrieverService(embedder, vectors, docStore, log)
	composer := services.NewComposerService(llm, log,
		services.WithMaxContextChars(cfg.Query.MaxContextChars))

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		vectors:  vectors,
		embedder: embedder,
		llm:      llm,
		history:  history,
		ingest: services.NewIngestService(registry, files, docStore, indexer, log,
			services.WithIngestConcurrency(cfg.Ingest.Concurrency)),
		query: services.NewQueryService(retriever, composer, history, log,
			services.WithDefaultTopK(cfg.Query.TopK)),
		documents: services.NewDocumentService(docStore, files),
	}, nil
}

// Close releases everything in reverse construction order.
func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.vectors != nil {
		a.vectors.Close()
	}
	if a.llm != nil {
		a.llm.Close()
	}
	if a.embedder != nil {
		a.embedder.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
