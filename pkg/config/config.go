package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	URL       string `yaml:"url"`
	VectorDim int    `yaml:"vector_dim"`
	MaxConns  int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LLMConfig struct {
	BaseURL         string  `yaml:"base_url"`
	GenerationModel string  `yaml:"generation_model"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Temperature     float64 `yaml:"temperature"`
	EmbedRateLimit  float64 `yaml:"embed_rate_limit"`
}

type ChunkingConfig struct {
	MinTokens     int `yaml:"min_tokens"`
	MaxTokens     int `yaml:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
}

type RAGConfig struct {
	Encoding          string  `yaml:"encoding"`
	TopK              int     `yaml:"top_k"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
	MaxContextTokens  int     `yaml:"max_context_tokens"`
	CacheTTLSeconds   int     `yaml:"cache_ttl_seconds"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	LLM      LLMConfig      `yaml:"llm"`
	Chunking ChunkingConfig `yaml:"chunking"`
	RAG      RAGConfig      `yaml:"rag"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/aura/config.yaml"),
			"/etc/aura/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}

	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = 10
	}

	if config.Redis.Addr == "" {
		config.Redis.Addr = "localhost:6379"
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.GenerationModel == "" {
		config.LLM.GenerationModel = "mistral"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxOutputTokens == 0 {
		config.LLM.MaxOutputTokens = 500
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.1
	}
	if config.LLM.EmbedRateLimit == 0 {
		config.LLM.EmbedRateLimit = 4
	}

	if config.Chunking.MinTokens == 0 {
		config.Chunking.MinTokens = 500
	}
	if config.Chunking.MaxTokens == 0 {
		config.Chunking.MaxTokens = 800
	}
	if config.Chunking.OverlapTokens == 0 {
		config.Chunking.OverlapTokens = 100
	}

	if config.RAG.Encoding == "" {
		config.RAG.Encoding = "cl100k_base"
	}
	if config.RAG.TopK == 0 {
		config.RAG.TopK = 5
	}
	if config.RAG.DistanceThreshold == 0 {
		config.RAG.DistanceThreshold = 0.35
	}
	if config.RAG.MaxContextTokens == 0 {
		config.RAG.MaxContextTokens = 3000
	}
	if config.RAG.CacheTTLSeconds == 0 {
		config.RAG.CacheTTLSeconds = 900
	}
}

func mergeWithEnv(config *Config) {
	if addr := os.Getenv("AURA_ADDR"); addr != "" {
		config.Server.Addr = addr
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		config.Redis.Addr = redisAddr
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
}
