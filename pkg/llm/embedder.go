package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"
)

// Task prefixes understood by nomic-style embedding models. Documents and
// queries are embedded in different modes so they land in a compatible but
// asymmetric vector space.
const (
	documentPrefix = "search_document: "
	queryPrefix    = "search_query: "
)

// EmbedderConfig represents the configuration for an embedding client.
type EmbedderConfig struct {
	Model     string
	BaseURL   string
	Dimension int
	RateLimit float64 // embedding requests per second
}

// EmbeddingClient is the slice of the provider client the embedder needs.
// *ollama.LLM satisfies it.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder produces fixed-dimension vectors for document chunks and queries.
type Embedder struct {
	config  EmbedderConfig
	client  EmbeddingClient
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewEmbedderWithConfig creates an Embedder backed by an Ollama-compatible
// embedding endpoint.
func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Dimension == 0 {
		config.Dimension = 768
	}
	if config.RateLimit == 0 {
		config.RateLimit = 4
	}

	client, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	return NewEmbedderWithClient(config, client), nil
}

// NewEmbedderWithClient wires an Embedder over an already-constructed
// provider client.
func NewEmbedderWithClient(config EmbedderConfig, client EmbeddingClient) *Embedder {
	if config.Dimension == 0 {
		config.Dimension = 768
	}
	if config.RateLimit == 0 {
		config.RateLimit = 4
	}
	return &Embedder{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		log:     slog.Default().With("component", "embedder"),
	}
}

// EmbedDocuments embeds a batch of chunk texts in document mode. Result
// order matches input order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = documentPrefix + t
	}

	e.log.Info("embedding documents", "count", len(texts))

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := e.client.CreateEmbedding(ctx, prefixed)
	if err != nil {
		return nil, classifyProviderErr("embed documents", err)
	}
	if err := e.checkVectors(vectors, len(texts)); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedQuery embeds a single question in query mode.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := e.client.CreateEmbedding(ctx, []string{queryPrefix + text})
	if err != nil {
		return nil, classifyProviderErr("embed query", err)
	}
	if err := e.checkVectors(vectors, 1); err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("embedding provider returned %d vectors, want %d", len(vectors), want)
	}
	for i, v := range vectors {
		if len(v) != e.config.Dimension {
			return fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), e.config.Dimension)
		}
	}
	return nil
}
