package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ragdemo/internal/contextutil"
	"ragdemo/internal/llm"
	"ragdemo/internal/rag"
)

// DefaultTextField is the payload field holding a passage's text.
const DefaultTextField = "text"

const serviceName = "qdrant"

// Retriever answers retrieval requests from a Qdrant collection.
// Questions are embedded first, then matched against stored passages.
type Retriever struct {
	embedder   Embedder
	store      Searcher
	collection string
	textField  string
}

// NewRetriever creates a Retriever. An empty textField selects DefaultTextField.
func NewRetriever(embedder Embedder, store Searcher, collection, textField string) *Retriever {
	if textField == "" {
		textField = DefaultTextField
	}
	return &Retriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
		textField:  textField,
	}
}

// Retrieve returns up to topK chunks, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]rag.Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK < 1 {
		return nil, fmt.Errorf("top_k must be at least 1, got %d", topK)
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, classify(err, "failed to embed query")
	}

	results, err := r.store.Search(ctx, r.collection, vector, topK)
	if err != nil {
		return nil, classify(err, "failed to search collection "+r.collection)
	}

	chunks := make([]rag.Chunk, 0, len(results))
	for _, res := range results {
		chunk, ok := r.toChunk(res)
		if !ok {
			logger.WarnContext(ctx, "point has no text payload", "point_id", res.PointID, "field", r.textField)
		}
		chunks = append(chunks, chunk)
	}

	logger.DebugContext(ctx, "retrieval completed", "backend", serviceName, "chunks", len(chunks))
	return chunks, nil
}

// Healthy checks that the collection is reachable.
func (r *Retriever) Healthy(ctx context.Context) error {
	exists, err := r.store.CollectionExists(ctx, r.collection)
	if err != nil {
		return classify(err, "failed to reach collection "+r.collection)
	}
	if !exists {
		return &rag.Error{
			Kind:    rag.KindConfiguration,
			Service: serviceName,
			Message: fmt.Sprintf("collection %q not found, check QDRANT_COLLECTION", r.collection),
		}
	}
	return nil
}

// toChunk maps a point onto a Chunk. ok is false when the text field is missing or not a string.
func (r *Retriever) toChunk(res SearchResult) (rag.Chunk, bool) {
	text, ok := res.Meta[r.textField].(string)

	extra := make(map[string]json.RawMessage, len(res.Meta))
	for k, v := range res.Meta {
		if k == r.textField || k == "text" || k == "score" {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			continue
		}
		extra[k] = raw
	}
	if res.PointID != "" {
		if raw, err := json.Marshal(res.PointID); err == nil {
			extra["id"] = raw
		}
	}
	if len(extra) == 0 {
		extra = nil
	}

	chunk := rag.NewChunk(text, float64(res.Score))
	chunk.Extra = extra
	return chunk, ok
}

// classify wraps err as a rag.Error whose kind reflects the failure.
func classify(err error, msg string) error {
	kind := rag.KindRemoteService

	var statusErr *llm.StatusError
	var urlErr *url.Error
	switch {
	case errors.As(err, &statusErr):
		if statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden {
			kind = rag.KindAuthentication
		}
		return &rag.Error{
			Kind:       kind,
			Service:    "embeddings",
			StatusCode: statusErr.StatusCode,
			Body:       statusErr.Body,
			Message:    msg,
		}
	case errors.As(err, &urlErr), errors.Is(err, context.DeadlineExceeded):
		kind = rag.KindNetwork
	default:
		if st, ok := status.FromError(err); ok {
			kind = grpcKind(st.Code())
		}
	}

	return &rag.Error{Kind: kind, Service: serviceName, Message: msg, Err: err}
}

func grpcKind(code codes.Code) rag.Kind {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return rag.KindAuthentication
	case codes.NotFound, codes.InvalidArgument:
		return rag.KindConfiguration
	case codes.Unavailable, codes.DeadlineExceeded:
		return rag.KindNetwork
	default:
		return rag.KindRemoteService
	}
}
