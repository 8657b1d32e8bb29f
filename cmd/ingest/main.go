// Package main provides the offline ingestion CLI that builds the vector store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/grounded-chat/internal/chunker"
	"github.com/bull/grounded-chat/internal/config"
	"github.com/bull/grounded-chat/internal/corpus"
	"github.com/bull/grounded-chat/internal/embedding"
	ghclient "github.com/bull/grounded-chat/internal/github"
	"github.com/bull/grounded-chat/internal/indexer"
	"github.com/bull/grounded-chat/internal/storage"
)

var (
	configPath    string
	docsDir       string
	docsJSON      string
	githubRepo    string
	githubPath    string
	githubRef     string
	outPath       string
	publishQdrant bool
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "grounded-ingest",
	Short: "Build the vector store for grounded chat",
	Long:  "CLI tool that chunks and embeds a document corpus into the vector store loaded by the server",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Chunk, embed and persist a corpus",
	Long: `Rebuilds the vector store from scratch.

This command:
1. Reads all documents from exactly one source (--docs, --json or --github)
2. Splits each document into overlapping fixed-size chunks
3. Embeds every chunk, one call per chunk, paced by ingest.delay_ms
4. Writes the store file (replacing it only when every chunk succeeded)
5. Optionally publishes the same records to Qdrant (--qdrant)

Any embedding failure aborts the run and leaves the previous store in place.

Environment variables:
  OPENAI_API_KEY     OpenAI API key for embeddings (required)
  OPENAI_BASE_URL    OpenAI-compatible endpoint (optional)
  EMBEDDING_MODEL    Embedding model (default: text-embedding-3-small)
  VECTOR_STORE_PATH  Output file (default: data/vector_store.json)
  QDRANT_HOST        Qdrant hostname (default: localhost)
  QDRANT_PORT        Qdrant gRPC port (default: 6334)
  GITHUB_TOKEN       GitHub token for higher rate limits (optional)`,
	RunE: runIngest,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Validate a store file and print its statistics",
	RunE:  runInspect,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "store file (overrides store.path)")

	runCmd.Flags().StringVar(&docsDir, "docs", "", "directory of .md/.markdown/.txt documents")
	runCmd.Flags().StringVar(&docsJSON, "json", "", `JSON file of [{"id","title","content"}] documents`)
	runCmd.Flags().StringVar(&githubRepo, "github", "", "GitHub repository as owner/repo")
	runCmd.Flags().StringVar(&githubPath, "github-path", "docs", "directory inside the GitHub repository")
	runCmd.Flags().StringVar(&githubRef, "github-ref", "", "branch, tag or commit (default branch when empty)")
	runCmd.Flags().BoolVar(&publishQdrant, "qdrant", false, "also publish the records to Qdrant")
	runCmd.MarkFlagsMutuallyExclusive("docs", "json", "github")
	runCmd.MarkFlagsOneRequired("docs", "json", "github")

	rootCmd.AddCommand(runCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if outPath != "" {
		cfg.Store.Path = outPath
	}
	return cfg, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 1. Resolve the document source
	source, err := newSource(cfg)
	if err != nil {
		return err
	}

	fmt.Println("Reading documents...")
	docs, err := source.Documents(ctx)
	if err != nil {
		return fmt.Errorf("Failed to read documents: %w", err)
	}
	fmt.Printf("Found %d documents\n", len(docs))

	// 2. Initialize chunker and embedder
	c, err := chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return err
	}
	client, err := embedding.NewClient(embedding.ClientConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.Embedding.BaseURL,
		Timeout: cfg.EmbeddingTimeout(),
	})
	if err != nil {
		return fmt.Errorf("Failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.Embedding.Model,
		embedding.WithRateLimitRetry(cfg.IngestRetry()))

	// 3. Chunk and embed everything
	fmt.Println()
	fmt.Println("Embedding chunks...")
	pipeline := indexer.NewPipeline(c, embedder, cfg.IngestDelay(), slog.Default())
	records, result, err := pipeline.Ingest(ctx, docs)
	if err != nil {
		return fmt.Errorf("Ingestion failed, store left unchanged: %w", err)
	}

	// 4. Persist
	if err := storage.Save(cfg.Store.Path, records); err != nil {
		return fmt.Errorf("Failed to write store: %w", err)
	}
	fmt.Printf("Wrote %s\n", cfg.Store.Path)

	// 5. Optional Qdrant mirror
	if publishQdrant {
		q := cfg.Store.Qdrant
		fmt.Printf("Publishing to Qdrant at %s:%d...\n", q.Host, q.Port)
		qs, err := storage.NewQdrantStorage(q.Host, q.Port, q.Collection)
		if err != nil {
			return fmt.Errorf("Failed to connect to Qdrant: %w", err)
		}
		defer qs.Close()
		if err := qs.Replace(ctx, records); err != nil {
			return fmt.Errorf("Failed to publish to Qdrant: %w", err)
		}
		fmt.Printf("Published collection %s\n", qs.Collection())
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Documents: %d (%d empty)\n", result.TotalDocs, result.EmptyDocs)
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	fmt.Printf("  Dimension: %d\n", result.Dimension)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func newSource(cfg *config.Config) (corpus.Source, error) {
	switch {
	case docsDir != "":
		return corpus.NewDirSource(docsDir), nil
	case docsJSON != "":
		return corpus.NewJSONSource(docsJSON), nil
	default:
		owner, repo, ok := strings.Cut(githubRepo, "/")
		if !ok || owner == "" || repo == "" {
			return nil, fmt.Errorf("--github must be owner/repo, got %q", githubRepo)
		}
		client, err := ghclient.NewClient(cfg.GitHubToken)
		if err != nil {
			return nil, fmt.Errorf("Failed to create GitHub client: %w", err)
		}
		fetcher := ghclient.NewFetcher(client, owner, repo, githubPath, githubRef)
		return corpus.NewGitHubSource(fetcher, corpus.DefaultFetchConcurrency), nil
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Load(cfg.Store.Path)
	if err != nil {
		return err
	}

	docs := make(map[string]int)
	for _, r := range store.Records() {
		docs[r.DocID]++
	}

	fmt.Printf("Store: %s\n", cfg.Store.Path)
	fmt.Printf("  Documents: %d\n", len(docs))
	fmt.Printf("  Chunks: %d\n", store.Len())
	fmt.Printf("  Dimension: %d\n", store.Dimension())
	return nil
}
