package rag_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/pkg/rag"
)

// fieldCodec counts one token per whitespace-separated word.
type fieldCodec struct{}

func (fieldCodec) Encode(text string) []int {
	return make([]int, len(strings.Fields(text)))
}

func (fieldCodec) Decode(tokens []int) string { return "" }

func (fieldCodec) Count(text string) int { return len(strings.Fields(text)) }

func chunkOfWords(n int, label string) models.RetrievedChunk {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", label, i)
	}
	return models.RetrievedChunk{
		ChunkID:    uuid.New(),
		DocumentID: uuid.New(),
		ChunkText:  strings.Join(words, " "),
	}
}

func TestBuildTagsChunksWithDocumentIDs(t *testing.T) {
	cb := rag.NewContextBuilder(fieldCodec{}, 100)
	chunk := chunkOfWords(3, "w")

	out := cb.Build([]models.RetrievedChunk{chunk})

	assert.Contains(t, out, fmt.Sprintf("[Document ID: %s]", chunk.DocumentID))
	assert.Contains(t, out, chunk.ChunkText)
}

func TestBuildPreservesOrderAndSeparator(t *testing.T) {
	cb := rag.NewContextBuilder(fieldCodec{}, 100)
	first := chunkOfWords(3, "x")
	second := chunkOfWords(3, "y")

	out := cb.Build([]models.RetrievedChunk{first, second})

	parts := strings.Split(out, "\n\n---\n\n")
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0], first.ChunkText)
	assert.Contains(t, parts[1], second.ChunkText)
}

func TestBuildStopsAtBudgetWithoutTruncating(t *testing.T) {
	cb := rag.NewContextBuilder(fieldCodec{}, 10)
	// Labels sit outside the hex alphabet so a chunk word can never occur
	// inside a generated document UUID.
	chunks := []models.RetrievedChunk{
		chunkOfWords(5, "x"),
		chunkOfWords(4, "y"),
		chunkOfWords(3, "z"), // 5+4+3 > 10: dropped whole
	}

	out := cb.Build(chunks)

	assert.Contains(t, out, chunks[0].ChunkText)
	assert.Contains(t, out, chunks[1].ChunkText)
	assert.NotContains(t, out, chunks[2].ChunkText)
}

func TestBuildOmissionIsBudgetDriven(t *testing.T) {
	cb := rag.NewContextBuilder(fieldCodec{}, 10)
	chunks := []models.RetrievedChunk{
		chunkOfWords(9, "x"),
		chunkOfWords(2, "y"), // exceeds the budget: everything after stops
		chunkOfWords(1, "z"),
	}

	out := cb.Build(chunks)

	assert.Contains(t, out, chunks[0].ChunkText)
	assert.NotContains(t, out, chunks[1].ChunkText)
	assert.NotContains(t, out, chunks[2].ChunkText)
}

func TestBuildEmptyInput(t *testing.T) {
	cb := rag.NewContextBuilder(fieldCodec{}, 10)

	assert.Equal(t, "", cb.Build(nil))
}
