package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/pkg/rag"
)

type fakeSearcher struct {
	chunks []models.RetrievedChunk
	err    error
	gotK   int
}

func (f *fakeSearcher) SearchChunks(ctx context.Context, tenantID uuid.UUID, queryVec []float32, topK int) ([]models.RetrievedChunk, error) {
	f.gotK = topK
	if f.err != nil {
		return nil, f.err
	}
	if topK < len(f.chunks) {
		return f.chunks[:topK], nil
	}
	return f.chunks, nil
}

func chunksWithDistances(distances ...float64) []models.RetrievedChunk {
	chunks := make([]models.RetrievedChunk, len(distances))
	for i, d := range distances {
		chunks[i] = models.RetrievedChunk{ChunkID: uuid.New(), DocumentID: uuid.New(), Distance: d}
	}
	return chunks
}

func TestRetrieveAppliesGate(t *testing.T) {
	searcher := &fakeSearcher{chunks: chunksWithDistances(0.10, 0.30, 0.40, 0.90)}
	r := rag.NewRetriever(searcher, rag.RetrieverConfig{TopK: 5, DistanceThreshold: 0.35})

	got, err := r.Retrieve(context.Background(), uuid.New(), []float32{1})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, 0.10, got[0].Distance)
	assert.Equal(t, 0.30, got[1].Distance)
	assert.Equal(t, 5, searcher.gotK)
}

func TestGateIsStrict(t *testing.T) {
	searcher := &fakeSearcher{chunks: chunksWithDistances(0.35)}
	r := rag.NewRetriever(searcher, rag.RetrieverConfig{TopK: 5, DistanceThreshold: 0.35})

	got, err := r.Retrieve(context.Background(), uuid.New(), []float32{1})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGateMonotonicity(t *testing.T) {
	// Lowering the threshold never increases the number of survivors.
	distances := chunksWithDistances(0.05, 0.15, 0.25, 0.45, 0.75)
	thresholds := []float64{0.8, 0.5, 0.35, 0.2, 0.1, 0.01}

	prev := len(distances) + 1
	for _, threshold := range thresholds {
		searcher := &fakeSearcher{chunks: distances}
		r := rag.NewRetriever(searcher, rag.RetrieverConfig{TopK: 10, DistanceThreshold: threshold})

		got, err := r.Retrieve(context.Background(), uuid.New(), []float32{1})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), prev, "threshold %v", threshold)
		prev = len(got)
	}
}

func TestGateAfterTopKCut(t *testing.T) {
	// All candidates pass the gate, but only topK are ever considered.
	searcher := &fakeSearcher{chunks: chunksWithDistances(0.01, 0.02, 0.03, 0.04)}
	r := rag.NewRetriever(searcher, rag.RetrieverConfig{TopK: 2, DistanceThreshold: 0.35})

	got, err := r.Retrieve(context.Background(), uuid.New(), []float32{1})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRetrieveMayBeEmpty(t *testing.T) {
	searcher := &fakeSearcher{}
	r := rag.NewRetriever(searcher, rag.RetrieverConfig{})

	got, err := r.Retrieve(context.Background(), uuid.New(), []float32{1})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrievePropagatesStorageErrors(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection reset")}
	r := rag.NewRetriever(searcher, rag.RetrieverConfig{})

	_, err := r.Retrieve(context.Background(), uuid.New(), []float32{1})
	require.Error(t, err)
}
