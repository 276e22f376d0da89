package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
server:
  addr: ":9090"

database:
  url: "postgres://localhost:5432/aura"
  vector_dim: 768
  max_conns: 20

redis:
  addr: "localhost:6380"
  db: 2

llm:
  base_url: "http://localhost:11434"
  generation_model: "mistral"
  embedding_model: "nomic-embed-text:latest"
  max_output_tokens: 400
  temperature: 0.2

chunking:
  min_tokens: 400
  max_tokens: 900
  overlap_tokens: 150

rag:
  top_k: 7
  distance_threshold: 0.4
  max_context_tokens: 2500
  cache_ttl_seconds: 600
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, ":9090", config.Server.Addr)
	assert.Equal(t, "postgres://localhost:5432/aura", config.Database.URL)
	assert.Equal(t, 768, config.Database.VectorDim)
	assert.Equal(t, int32(20), config.Database.MaxConns)
	assert.Equal(t, "localhost:6380", config.Redis.Addr)
	assert.Equal(t, 2, config.Redis.DB)
	assert.Equal(t, "mistral", config.LLM.GenerationModel)
	assert.Equal(t, 400, config.LLM.MaxOutputTokens)
	assert.Equal(t, 0.2, config.LLM.Temperature)
	assert.Equal(t, 900, config.Chunking.MaxTokens)
	assert.Equal(t, 7, config.RAG.TopK)
	assert.Equal(t, 0.4, config.RAG.DistanceThreshold)
	assert.Equal(t, 600, config.RAG.CacheTTLSeconds)

	// Unset fields fall back to defaults
	assert.Equal(t, float64(4), config.LLM.EmbedRateLimit)
	assert.Equal(t, "cl100k_base", config.RAG.Encoding)
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("database:\n  url: postgres://localhost:5432/aura\n"), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, 768, config.Database.VectorDim)
	assert.Equal(t, "localhost:6379", config.Redis.Addr)
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, 500, config.LLM.MaxOutputTokens)
	assert.Equal(t, 0.1, config.LLM.Temperature)
	assert.Equal(t, 500, config.Chunking.MinTokens)
	assert.Equal(t, 800, config.Chunking.MaxTokens)
	assert.Equal(t, 100, config.Chunking.OverlapTokens)
	assert.Equal(t, 5, config.RAG.TopK)
	assert.Equal(t, 0.35, config.RAG.DistanceThreshold)
	assert.Equal(t, 3000, config.RAG.MaxContextTokens)
	assert.Equal(t, 900, config.RAG.CacheTTLSeconds)

	assert.Empty(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	validConfig := func() Config {
		config := Config{
			Database: DatabaseConfig{URL: "postgres://localhost:5432/aura"},
		}
		applyDefaults(&config)
		return config
	}

	tests := []struct {
		name          string
		mutate        func(*Config)
		errorMessages []string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name: "invalid llm config",
			mutate: func(c *Config) {
				c.LLM.MaxOutputTokens = 5000
				c.LLM.Temperature = 3.0
			},
			errorMessages: []string{
				"llm.max_output_tokens: max_output_tokens must be between 1 and 4096",
				"llm.temperature: temperature must be between 0 and 2",
			},
		},
		{
			name: "missing database url",
			mutate: func(c *Config) {
				c.Database.URL = ""
			},
			errorMessages: []string{
				"database.url: database URL is required",
			},
		},
		{
			name: "invalid chunking config",
			mutate: func(c *Config) {
				c.Chunking.MinTokens = 900
				c.Chunking.OverlapTokens = 800
			},
			errorMessages: []string{
				"chunking.min_tokens: min_tokens must be positive and no greater than max_tokens",
				"chunking.overlap_tokens: overlap_tokens must be non-negative and less than max_tokens",
			},
		},
		{
			name: "invalid rag config",
			mutate: func(c *Config) {
				c.RAG.TopK = -1
				c.RAG.DistanceThreshold = 2.5
			},
			errorMessages: []string{
				"rag.top_k: top_k must be positive",
				"rag.distance_threshold: distance_threshold must be between 0 and 2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			errors := config.Validate()
			assert.Len(t, errors, len(tt.errorMessages))

			for i, msg := range tt.errorMessages {
				assert.Equal(t, msg, errors[i].Error())
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("AURA_ADDR", ":7070")
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/aura")
	t.Setenv("REDIS_ADDR", "env-redis:6379")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, ":7070", config.Server.Addr)
	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/aura", config.Database.URL)
	assert.Equal(t, "env-redis:6379", config.Redis.Addr)
}
