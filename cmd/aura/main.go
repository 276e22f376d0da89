package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aurahq/aura/pkg/cache"
	"github.com/aurahq/aura/pkg/chunker"
	"github.com/aurahq/aura/pkg/config"
	"github.com/aurahq/aura/pkg/llm"
	"github.com/aurahq/aura/pkg/rag"
	"github.com/aurahq/aura/pkg/store"
	"github.com/aurahq/aura/pkg/token"
	"github.com/aurahq/aura/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config file")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*configPath, *addr); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("invalid config", "field", e.Field, "message", e.Message)
		}
		return fmt.Errorf("%d config error(s)", len(errs))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec, err := token.NewBPE(cfg.RAG.Encoding)
	if err != nil {
		return fmt.Errorf("initializing token codec: %w", err)
	}

	chk := chunker.NewWithConfig(codec, chunker.ChunkerConfig{
		MinTokens:     cfg.Chunking.MinTokens,
		MaxTokens:     cfg.Chunking.MaxTokens,
		OverlapTokens: cfg.Chunking.OverlapTokens,
	})

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     cfg.LLM.EmbeddingModel,
		BaseURL:   cfg.LLM.BaseURL,
		Dimension: cfg.Database.VectorDim,
		RateLimit: cfg.LLM.EmbedRateLimit,
	})
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}

	generator, err := llm.NewGeneratorWithConfig(llm.GeneratorConfig{
		Model:           cfg.LLM.GenerationModel,
		BaseURL:         cfg.LLM.BaseURL,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Temperature:     cfg.LLM.Temperature,
	})
	if err != nil {
		return fmt.Errorf("initializing generator: %w", err)
	}

	st, err := store.NewWithConfig(ctx, store.StoreConfig{
		ConnString: cfg.Database.URL,
		VectorDim:  cfg.Database.VectorDim,
		MaxConns:   cfg.Database.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer st.Close()

	answerCache := cache.NewWithConfig(cache.CacheConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      time.Duration(cfg.RAG.CacheTTLSeconds) * time.Second,
	})

	engine := rag.NewEngine(rag.EngineDeps{
		Store:     st,
		Cache:     answerCache,
		Embedder:  embedder,
		Generator: generator,
		Chunker:   chk,
		Retriever: rag.NewRetriever(st, rag.RetrieverConfig{
			TopK:              cfg.RAG.TopK,
			DistanceThreshold: cfg.RAG.DistanceThreshold,
		}),
		Context: rag.NewContextBuilder(codec, cfg.RAG.MaxContextTokens),
	})

	srv := server.NewWithConfig(server.Config{Addr: cfg.Server.Addr}, engine, st, st, answerCache)

	return srv.Run(ctx)
}
