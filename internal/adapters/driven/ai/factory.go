// Package ai provides factory functions for creating provider-backed
// service adapters from configuration.
package ai

import (
	"fmt"

	localembed "github.com/crateview/docquery/internal/adapters/driven/embedding/local"
	openaiembed "github.com/crateview/docquery/internal/adapters/driven/embedding/openai"
	geminillm "github.com/crateview/docquery/internal/adapters/driven/llm/gemini"
	openaillm "github.com/crateview/docquery/internal/adapters/driven/llm/openai"
	memoryvec "github.com/crateview/docquery/internal/adapters/driven/vectorstore/memory"
	qdrantvec "github.com/crateview/docquery/internal/adapters/driven/vectorstore/qdrant"
	sqlitevec "github.com/crateview/docquery/internal/adapters/driven/vectorstore/sqlite"
	"github.com/crateview/docquery/internal/config"
	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// CreateEmbeddingService builds the configured embedding provider.
// The embedding service is mandatory: both indexing and retrieval
// depend on it.
func CreateEmbeddingService(cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "openai":
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil
	case "local":
		var opts []localembed.Option
		if cfg.Dimensions > 0 {
			opts = append(opts, localembed.WithDimensions(cfg.Dimensions))
		}
		return localembed.NewEmbeddingService(opts...), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// CreateLLMService builds the configured generation provider. A nil
// service (provider "none") is valid: answers degrade to evidence
// summaries.
func CreateLLMService(cfg config.LLMConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case "gemini":
		svc, err := geminillm.NewLLMService(geminillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return svc, nil
	case "openai":
		svc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return svc, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// CreateVectorStore builds the configured vector store backend.
func CreateVectorStore(cfg config.VectorsConfig, dataDir string, dimensions int) (driven.VectorStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return sqlitevec.NewVectorStore(dataDir)
	case "memory":
		return memoryvec.NewVectorStore(), nil
	case "qdrant":
		return qdrantvec.NewVectorStore(qdrantvec.Config{
			BaseURL:          cfg.Qdrant.URL,
			APIKey:           cfg.Qdrant.APIKey,
			CollectionPrefix: cfg.Qdrant.CollectionPrefix,
			Dimensions:       dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.Backend)
	}
}
