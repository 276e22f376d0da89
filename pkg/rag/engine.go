package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/aurahq/aura/internal/models"
	"github.com/aurahq/aura/internal/types"
)

// ErrTenantNotFound is returned before any pipeline work when the tenant id
// is unknown.
var ErrTenantNotFound = errors.New("tenant not found")

// EngineDeps collects the collaborators the orchestrator sequences.
type EngineDeps struct {
	Store     types.Store
	Cache     types.AnswerCache
	Embedder  types.Embedder
	Generator types.Generator
	Chunker   types.Chunker
	Retriever *Retriever
	Context   *ContextBuilder
}

// Engine runs the end-to-end question-answering and ingestion flows. One
// invocation handles one request; there is no shared mutable state between
// concurrent calls and no internal retry loop.
type Engine struct {
	deps EngineDeps
	log  *slog.Logger
}

func NewEngine(deps EngineDeps) *Engine {
	return &Engine{
		deps: deps,
		log:  slog.Default().With("component", "engine"),
	}
}

// Ask answers a question from the tenant's corpus, refusing with
// insufficient_context when no retrieved chunk passes the relevance gate.
//
// Sequence: tenant check → cache check → embed query → retrieve → gate →
// generate → audit → cache write → respond. A cache hit short-circuits
// everything after the cache check; a refusal is audited but never cached.
func (e *Engine) Ask(ctx context.Context, tenantID uuid.UUID, question string) (models.Answer, error) {
	exists, err := e.deps.Store.TenantExists(ctx, tenantID)
	if err != nil {
		return models.Answer{}, fmt.Errorf("tenant check: %w", err)
	}
	if !exists {
		return models.Answer{}, fmt.Errorf("tenant %s: %w", tenantID, ErrTenantNotFound)
	}

	cached, err := e.deps.Cache.Get(ctx, tenantID, question)
	if err != nil {
		// A cache outage degrades to a miss instead of failing the ask.
		e.log.Warn("cache read failed, continuing uncached", "error", err)
	}
	if cached != nil {
		cached.Cached = true
		return *cached, nil
	}

	queryVec, err := e.deps.Embedder.EmbedQuery(ctx, question)
	if err != nil {
		return models.Answer{}, fmt.Errorf("query embedding: %w", err)
	}

	chunks, err := e.deps.Retriever.Retrieve(ctx, tenantID, queryVec)
	if err != nil {
		return models.Answer{}, fmt.Errorf("retrieval: %w", err)
	}

	if len(chunks) == 0 {
		refusal := models.Refusal()
		if err := e.deps.Store.SaveInteraction(ctx, tenantID, question, refusal); err != nil {
			return models.Answer{}, fmt.Errorf("audit: %w", err)
		}
		e.log.Info("refused: no chunk passed the relevance gate", "tenant_id", tenantID)
		return refusal, nil
	}

	contextStr := e.deps.Context.Build(chunks)

	answer, err := e.deps.Generator.Generate(ctx, contextStr, question)
	if err != nil {
		return models.Answer{}, fmt.Errorf("generation: %w", err)
	}
	answer.Cached = false

	if err := e.deps.Store.SaveInteraction(ctx, tenantID, question, answer); err != nil {
		return models.Answer{}, fmt.Errorf("audit: %w", err)
	}

	if !answer.IsRefusal() {
		if err := e.deps.Cache.Put(ctx, tenantID, question, answer); err != nil {
			e.log.Warn("cache write failed", "error", err)
		}
	}

	return answer, nil
}

// Ingest chunks a document, embeds the chunks in document mode and persists
// everything in one batch. Returns the stored document and its chunk count.
func (e *Engine) Ingest(ctx context.Context, tenantID uuid.UUID, title, content string) (models.Document, int, error) {
	exists, err := e.deps.Store.TenantExists(ctx, tenantID)
	if err != nil {
		return models.Document{}, 0, fmt.Errorf("tenant check: %w", err)
	}
	if !exists {
		return models.Document{}, 0, fmt.Errorf("tenant %s: %w", tenantID, ErrTenantNotFound)
	}

	chunks := e.deps.Chunker.Chunk(content)

	vectors, err := e.deps.Embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return models.Document{}, 0, fmt.Errorf("chunk embedding: %w", err)
	}
	if len(vectors) != len(chunks) {
		return models.Document{}, 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	doc := models.Document{
		ID:       uuid.New(),
		TenantID: tenantID,
		Title:    title,
		Content:  content,
	}

	records := make([]models.DocumentChunk, len(chunks))
	for i, text := range chunks {
		records[i] = models.DocumentChunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			TenantID:   tenantID,
			ChunkText:  text,
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}

	stored, err := e.deps.Store.InsertDocument(ctx, doc, records)
	if err != nil {
		return models.Document{}, 0, err
	}

	return stored, len(records), nil
}
