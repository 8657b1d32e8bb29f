// Package main provides the grounded chat MCP server entry point.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bull/grounded-chat/internal/config"
	"github.com/bull/grounded-chat/internal/domain"
	"github.com/bull/grounded-chat/internal/embedding"
	"github.com/bull/grounded-chat/internal/generation"
	mcpserver "github.com/bull/grounded-chat/internal/mcp"
	"github.com/bull/grounded-chat/internal/rag"
	"github.com/bull/grounded-chat/internal/retrieval"
	"github.com/bull/grounded-chat/internal/session"
	"github.com/bull/grounded-chat/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "YAML config file")
	flag.Parse()

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Logs go to stderr: stdout carries the stdio MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger.Info("Loaded config", "settings", cfg.String())

	// Load the vector store; the server must not start without one
	store, err := loadStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to load vector store: %v", err)
	}
	logger.Info("Vector store loaded", "chunks", store.Len(), "dimension", store.Dimension())

	// Provider adapters. The SDK retry budget stays at zero so failures are
	// classified and returned to the caller.
	embeddingClient, err := embedding.NewClient(embedding.ClientConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.Embedding.BaseURL,
		Timeout: cfg.EmbeddingTimeout(),
	})
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, cfg.Embedding.Model)

	generator, err := newGenerator(cfg)
	if err != nil {
		log.Fatalf("failed to create generator: %v", err)
	}

	service := rag.NewService(
		embedder,
		generator,
		retrieval.NewRanker(store, cfg.Retrieval.TopK, cfg.Retrieval.Threshold),
		session.NewStore(cfg.RAG.HistoryPairs),
		rag.Options{
			Temperature:       cfg.Generation.Temperature,
			MaxTokens:         cfg.Generation.MaxTokens,
			MaxQuestionLength: cfg.RAG.MaxQuestionLength,
			FallbackMessage:   cfg.RAG.FallbackMessage,
		},
		logger,
	)

	server := mcpserver.NewServer(&mcpserver.Config{
		Assistant:    service,
		StoreBackend: cfg.Store.Backend,
		Logger:       logger,
	})
	mux := mcpserver.NewMux(server, store, nil)
	addr := "0.0.0.0:" + cfg.Server.Port

	if cfg.Server.HTTPMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		httpServer := &http.Server{Addr: addr, Handler: mux}
		go func() {
			<-ctx.Done()
			httpServer.Shutdown(context.Background())
		}()
		logger.Info("Starting HTTP server", "addr", addr, "mcp", "/mcp", "health", "/health")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	// Stdio mode: MCP over stdin/stdout, health endpoint in the background
	go func() {
		logger.Info("Starting health server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("Health server error", "error", err)
		}
	}()

	logger.Info("Starting grounded chat MCP server (stdio mode)")
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// loadStore reads the records from the configured backend and validates
// their dimensionality.
func loadStore(ctx context.Context, cfg *config.Config) (*storage.VectorStore, error) {
	if cfg.Store.Backend != config.BackendQdrant {
		return storage.Load(cfg.Store.Path)
	}

	q := cfg.Store.Qdrant
	qs, err := storage.NewQdrantStorage(q.Host, q.Port, q.Collection)
	if err != nil {
		return nil, domain.Configurationf("connect to qdrant: %v", err)
	}
	defer qs.Close()

	records, err := qs.LoadAll(ctx)
	if err != nil {
		return nil, domain.Configurationf("load collection %s: %v", q.Collection, err)
	}
	return storage.NewVectorStore(records)
}

func newGenerator(cfg *config.Config) (domain.Generator, error) {
	if cfg.Generation.Provider == config.ProviderAnthropic {
		model := cfg.Generation.Model
		if model == config.Default().Generation.Model {
			model = generation.DefaultAnthropicModel
		}
		return generation.NewAnthropicGenerator(generation.AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   model,
			Timeout: cfg.GenerationTimeout(),
		})
	}

	client, err := embedding.NewClient(embedding.ClientConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.Embedding.BaseURL,
		Timeout: cfg.GenerationTimeout(),
	})
	if err != nil {
		return nil, err
	}
	return generation.NewOpenAIGenerator(client.Client(), cfg.Generation.Model), nil
}
