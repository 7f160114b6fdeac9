package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_deps.go -package=mocks ragdemo/internal/service Retriever,Generator,InteractionRecorder
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_service.go -package=mocks ragdemo/internal/service QueryService

import (
	"context"
	"strings"
	"time"

	"ragdemo/internal/contextutil"
	"ragdemo/internal/rag"
)

const (
	// DefaultTopK is the number of chunks retrieved when the caller does not ask for a count.
	DefaultTopK = 3
	// MaxTopK is the largest count accepted from web callers.
	MaxTopK = 10
	// MaxQueryLength is the longest question, in characters, accepted from web callers.
	MaxQueryLength = 1000
)

// Retriever fetches the passages most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]rag.Chunk, error)
}

// Generator produces an answer grounded on the retrieved passages.
type Generator interface {
	Generate(ctx context.Context, query string, passages []string) (string, error)
}

// InteractionRecorder persists answered queries. Implementations absorb their own failures.
type InteractionRecorder interface {
	LogInteraction(ctx context.Context, query, response string, chunks []rag.Chunk)
}

// QueryRequest represents a question in the domain layer.
type QueryRequest struct {
	Query string
	// TopK is the number of chunks to retrieve; 0 selects DefaultTopK.
	TopK int
}

// QueryService answers questions with retrieval-augmented generation.
type QueryService interface {
	Query(ctx context.Context, req QueryRequest) (rag.QueryResult, error)
}

type queryService struct {
	retriever Retriever
	generator Generator
	recorder  InteractionRecorder
}

// NewQueryService creates a QueryService. recorder may be nil to disable interaction logging.
func NewQueryService(retriever Retriever, generator Generator, recorder InteractionRecorder) QueryService {
	return &queryService{
		retriever: retriever,
		generator: generator,
		recorder:  recorder,
	}
}

// Query retrieves chunks, generates an answer from their text and records the interaction.
// Retrieval and generation errors are returned as-is.
func (s *queryService) Query(ctx context.Context, req QueryRequest) (rag.QueryResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	if strings.TrimSpace(req.Query) == "" {
		logger.WarnContext(ctx, "empty query")
		return rag.QueryResult{}, &ValidationError{Field: "query", Message: "cannot be empty"}
	}

	topK := req.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 0 {
		return rag.QueryResult{}, &ValidationError{Field: "top_k", Message: "must be at least 1"}
	}

	chunks, err := s.retriever.Retrieve(ctx, req.Query, topK)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err, "kind", rag.KindOf(err).String())
		return rag.QueryResult{}, err
	}

	answer, err := s.generator.Generate(ctx, req.Query, rag.Texts(chunks))
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "error", err)
		return rag.QueryResult{}, err
	}

	if s.recorder != nil {
		s.recorder.LogInteraction(ctx, req.Query, answer, chunks)
	}

	logger.InfoContext(ctx, "query processed",
		"query_length", len(req.Query),
		"top_k", topK,
		"chunks", len(chunks),
		"answer_length", len(answer),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return rag.QueryResult{Response: answer, Chunks: chunks}, nil
}
