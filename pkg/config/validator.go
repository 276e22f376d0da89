package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.MaxOutputTokens < 1 || c.LLM.MaxOutputTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_output_tokens",
			Message: "max_output_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.EmbedRateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.embed_rate_limit",
			Message: "embed_rate_limit must be positive",
		})
	}

	// Validate Database config
	if c.Database.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "database URL is required",
		})
	} else if _, err := url.Parse(c.Database.URL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "invalid database URL",
		})
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Redis config
	if c.Redis.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "redis.addr",
			Message: "Redis address is required",
		})
	}

	// Validate Chunking config
	if c.Chunking.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunking.max_tokens",
			Message: "max_tokens must be positive",
		})
	}

	if c.Chunking.MinTokens < 1 || c.Chunking.MinTokens > c.Chunking.MaxTokens {
		errors = append(errors, ValidationError{
			Field:   "chunking.min_tokens",
			Message: "min_tokens must be positive and no greater than max_tokens",
		})
	}

	if c.Chunking.OverlapTokens < 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		errors = append(errors, ValidationError{
			Field:   "chunking.overlap_tokens",
			Message: "overlap_tokens must be non-negative and less than max_tokens",
		})
	}

	// Validate RAG config
	if c.RAG.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "rag.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.RAG.DistanceThreshold <= 0 || c.RAG.DistanceThreshold > 2 {
		errors = append(errors, ValidationError{
			Field:   "rag.distance_threshold",
			Message: "distance_threshold must be between 0 and 2",
		})
	}

	if c.RAG.MaxContextTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "rag.max_context_tokens",
			Message: "max_context_tokens must be positive",
		})
	}

	if c.RAG.CacheTTLSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "rag.cache_ttl_seconds",
			Message: "cache_ttl_seconds must be positive",
		})
	}

	return errors
}
