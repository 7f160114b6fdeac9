package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragdemo/internal/contextutil"
	"ragdemo/internal/indexer"
	"ragdemo/internal/llm"
	"ragdemo/internal/vectorstore"
)

var (
	indexBatchSize int
	indexWorkers   int
)

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Load markdown files into the Qdrant collection",
	Long: `Chunk every markdown file under <dir> by heading, embed the chunks and
upsert them into QDRANT_COLLECTION. The collection is created on first use.

Re-indexing a file replaces its earlier chunks. Query the result with
RETRIEVAL_BACKEND=qdrant.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&indexBatchSize, "batch-size", 32, "chunks per embeddings request")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 4, "files indexed concurrently")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := setupLogging(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return err
	}
	if cfg.LLMAPIKey == "" {
		return fmt.Errorf("missing API keys: OPENAI_API_KEY")
	}

	ctx := contextutil.WithLogger(cmd.Context(), logger)

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, 0, cfg.CompletionTimeout)
	pipeline := indexer.NewPipeline(embedder, store, cfg.QdrantCollection,
		indexer.WithBatchSize(indexBatchSize),
		indexer.WithWorkers(indexWorkers),
		indexer.WithTextField(cfg.QdrantTextField),
	)

	stats, err := pipeline.IndexDir(ctx, args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d files into %s (%d empty, %d failed)\n",
		stats.Chunks, stats.Files, cfg.QdrantCollection, stats.EmptyFiles, stats.FailedFiles)
	return err
}
