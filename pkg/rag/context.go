package rag

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/pkg/token"
)

const chunkSeparator = "\n\n---\n\n"

// ContextBuilder assembles the prompt context from retrieved chunks under a
// hard token budget, preserving the best-first input order.
type ContextBuilder struct {
	codec     token.Codec
	maxTokens int
	log       *slog.Logger
}

func NewContextBuilder(codec token.Codec, maxTokens int) *ContextBuilder {
	if maxTokens <= 0 {
		maxTokens = 3000
	}
	return &ContextBuilder{
		codec:     codec,
		maxTokens: maxTokens,
		log:       slog.Default().With("component", "context"),
	}
}

// Build tags each chunk with its document id so the model can cite it, and
// stops before the first chunk whose whole inclusion would exceed the
// budget. Chunks are never truncated mid-text; later chunks are dropped even
// when a smaller one might still fit, keeping omission purely budget-driven.
func (cb *ContextBuilder) Build(chunks []models.RetrievedChunk) string {
	var parts []string
	total := 0

	for _, chunk := range chunks {
		cost := cb.codec.Count(chunk.ChunkText)
		if total+cost > cb.maxTokens {
			cb.log.Info("context truncated", "tokens", total, "omitted_from", chunk.ChunkID)
			break
		}
		parts = append(parts, fmt.Sprintf("[Document ID: %s]\n%s", chunk.DocumentID, chunk.ChunkText))
		total += cost
	}

	return strings.Join(parts, chunkSeparator)
}
