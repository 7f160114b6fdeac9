// Package indexer loads a directory of markdown files into the vector
// collection that the qdrant retrieval backend searches.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ragdemo/internal/contextutil"
	"ragdemo/internal/vectorstore"
)

// Payload fields written with every point. FieldText is what the retriever
// returns as chunk text.
const (
	FieldText        = "text"
	FieldSource      = "source"
	FieldTitle       = "title"
	FieldHeadingPath = "heading_path"
	FieldChunkIndex  = "chunk_index"
)

const (
	defaultBatchSize = 32
	defaultWorkers   = 4
)

// pointNamespace seeds the deterministic point IDs, so re-indexing a file
// overwrites its points instead of duplicating them.
var pointNamespace = uuid.MustParse("6f1c5a0e-8d7b-4c4e-9a55-3b2f0d1e7c90")

// Pipeline chunks, embeds and stores markdown files.
type Pipeline struct {
	embedder   vectorstore.BatchEmbedder
	store      vectorstore.Writer
	collection string
	textField  string
	chunker    *GoldmarkChunker
	batchSize  int
	workers    int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithWorkers sets how many files are indexed concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithTextField stores chunk text under field instead of FieldText.
func WithTextField(field string) Option {
	return func(p *Pipeline) {
		if field != "" {
			p.textField = field
		}
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(embedder vectorstore.BatchEmbedder, store vectorstore.Writer, collection string, opts ...Option) *Pipeline {
	p := &Pipeline{
		embedder:   embedder,
		store:      store,
		collection: collection,
		textField:  FieldText,
		chunker:    NewGoldmarkChunker(),
		batchSize:  defaultBatchSize,
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run holds the state shared by the workers of one IndexDir call.
type run struct {
	mu         sync.Mutex
	stats      Stats
	vectorSize int
}

// IndexDir indexes every markdown file under root.
// A failing file is logged and counted; the others are still indexed and the
// failures are returned together once the run ends.
func (p *Pipeline) IndexDir(ctx context.Context, root string) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := Scan(ctx, root)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	logger.InfoContext(ctx, "starting indexing", "root", root, "files", len(files), "collection", p.collection)

	r := &run{}
	var (
		errsMu sync.Mutex
		errs   []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			n, err := p.indexFile(gctx, r, file)
			r.mu.Lock()
			r.stats.Files++
			switch {
			case err != nil:
				r.stats.FailedFiles++
			case n == 0:
				r.stats.EmptyFiles++
			}
			r.stats.Chunks += n
			r.mu.Unlock()

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.ErrorContext(gctx, "failed to index file", "rel_path", file.RelPath, "error", err)
				errsMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", file.RelPath, err))
				errsMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return r.stats, err
	}

	logger.InfoContext(ctx, "indexing completed",
		"files", r.stats.Files,
		"chunks", r.stats.Chunks,
		"empty", r.stats.EmptyFiles,
		"failed", r.stats.FailedFiles)

	if len(errs) > 0 {
		return r.stats, fmt.Errorf("indexing completed with %d errors: %w", len(errs), errors.Join(errs...))
	}
	return r.stats, nil
}

// indexFile replaces the points of one file and returns how many chunks it stored.
func (p *Pipeline) indexFile(ctx context.Context, r *run, file SourceFile) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	title, chunks := p.chunker.ChunkMarkdown(content, file.RelPath)
	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "rel_path", file.RelPath)
		return 0, nil
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		batch := chunks[start:min(start+p.batchSize, len(chunks))]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
		}

		if start == 0 {
			if err := p.ensureCollection(ctx, r, len(vectors[0])); err != nil {
				return 0, err
			}
			// Drop points left over from a longer previous version of the file.
			if err := p.store.DeleteByField(ctx, p.collection, FieldSource, file.RelPath); err != nil {
				return 0, err
			}
		}

		points := make([]vectorstore.Point, len(batch))
		for i, chunk := range batch {
			points[i] = vectorstore.Point{
				ID:  PointID(file.RelPath, chunk.Index),
				Vec: vectors[i],
				Meta: map[string]any{
					p.textField:      chunk.Text,
					FieldSource:      file.RelPath,
					FieldTitle:       title,
					FieldHeadingPath: chunk.HeadingPath,
					FieldChunkIndex:  chunk.Index,
				},
			}
		}

		if err := p.store.Upsert(ctx, p.collection, points); err != nil {
			return 0, fmt.Errorf("failed to upsert vectors: %w", err)
		}
	}

	logger.InfoContext(ctx, "indexed file", "rel_path", file.RelPath, "chunks", len(chunks), "title", title)
	return len(chunks), nil
}

// ensureCollection runs EnsureCollection once per run, sized by the first
// embedding, and rejects later vectors of another size.
func (p *Pipeline) ensureCollection(ctx context.Context, r *run, size int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vectorSize != 0 {
		if r.vectorSize != size {
			return fmt.Errorf("embedding size changed from %d to %d", r.vectorSize, size)
		}
		return nil
	}
	if err := p.store.EnsureCollection(ctx, p.collection, size); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}
	r.vectorSize = size
	return nil
}

// PointID returns the stable point ID of a file's chunk.
func PointID(relPath string, index int) string {
	return uuid.NewSHA1(pointNamespace, fmt.Appendf(nil, "%s#%d", relPath, index)).String()
}
