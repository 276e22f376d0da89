package types

import (
	"context"

	"github.com/google/uuid"

	"github.com/aurahq/aura/internal/models"
)

// Core interfaces

// Chunker splits raw document text into overlapping token-bounded segments.
type Chunker interface {
	Chunk(text string) []string
}

// Embedder turns text into fixed-dimension vectors. Document and query
// embeddings use different task modes, so they are distinct operations.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator calls the language model with an assembled context and returns a
// fully normalized answer. It only fails for transport-level problems;
// malformed model output is repaired into a best-effort answer.
type Generator interface {
	Generate(ctx context.Context, contextStr, question string) (models.Answer, error)
}

// Store is the persistence surface the pipeline depends on.
type Store interface {
	TenantExists(ctx context.Context, tenantID uuid.UUID) (bool, error)
	InsertDocument(ctx context.Context, doc models.Document, chunks []models.DocumentChunk) (models.Document, error)
	SearchChunks(ctx context.Context, tenantID uuid.UUID, queryVec []float32, topK int) ([]models.RetrievedChunk, error)
	SaveInteraction(ctx context.Context, tenantID uuid.UUID, question string, answer models.Answer) error
}

// AnswerCache memoizes normalized answers per (tenant, question) fingerprint.
// Get returns (nil, nil) on a miss.
type AnswerCache interface {
	Get(ctx context.Context, tenantID uuid.UUID, question string) (*models.Answer, error)
	Put(ctx context.Context, tenantID uuid.UUID, question string, answer models.Answer) error
}
