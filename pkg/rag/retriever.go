package rag

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aurahq/aura/internal/models"
)

// chunkSearcher is the slice of the store the retriever needs.
type chunkSearcher interface {
	SearchChunks(ctx context.Context, tenantID uuid.UUID, queryVec []float32, topK int) ([]models.RetrievedChunk, error)
}

type RetrieverConfig struct {
	TopK              int
	DistanceThreshold float64
}

// Retriever runs the tenant-scoped nearest-neighbor query and applies the
// relevance gate.
type Retriever struct {
	store  chunkSearcher
	config RetrieverConfig
	log    *slog.Logger
}

func NewRetriever(store chunkSearcher, config RetrieverConfig) *Retriever {
	if config.TopK == 0 {
		config.TopK = 5
	}
	if config.DistanceThreshold == 0 {
		config.DistanceThreshold = 0.35
	}
	return &Retriever{
		store:  store,
		config: config,
		log:    slog.Default().With("component", "retriever"),
	}
}

// Retrieve returns the gate survivors in increasing distance order. The gate
// is applied after the top-k cut, so a poorly matching corpus legitimately
// yields zero chunks even when top-k candidates exist.
func (r *Retriever) Retrieve(ctx context.Context, tenantID uuid.UUID, queryVec []float32) ([]models.RetrievedChunk, error) {
	candidates, err := r.store.SearchChunks(ctx, tenantID, queryVec, r.config.TopK)
	if err != nil {
		return nil, err
	}

	var survivors []models.RetrievedChunk
	for _, chunk := range candidates {
		r.log.Debug("candidate chunk",
			"chunk_id", chunk.ChunkID, "distance", chunk.Distance,
			"threshold", r.config.DistanceThreshold)
		if chunk.Distance < r.config.DistanceThreshold {
			survivors = append(survivors, chunk)
		}
	}

	r.log.Info("retrieved chunks",
		"tenant_id", tenantID,
		"candidates", len(candidates),
		"survivors", len(survivors))
	return survivors, nil
}
