package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks ragdemo/internal/vectorstore BatchEmbedder,Embedder,Searcher,Writer

import "context"

// Point is a vector with its payload, as stored in a collection.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// Searcher runs similarity searches against a vector collection.
type Searcher interface {
	// Search returns at most k points closest to query, best first.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// CollectionExists reports whether the collection is present.
	CollectionExists(ctx context.Context, collection string) (bool, error)
}

// Writer loads points into a vector collection.
type Writer interface {
	// EnsureCollection creates the collection, or checks that an existing one
	// stores vectors of vectorSize.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts points, replacing any with the same ID.
	Upsert(ctx context.Context, collection string, points []Point) error

	// DeleteByField removes every point whose payload field equals value.
	DeleteByField(ctx context.Context, collection, field, value string) error
}

// Embedder turns a question into a query vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder embeds several texts in one request, one vector per text in input order.
type BatchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
