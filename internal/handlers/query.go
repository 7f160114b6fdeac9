package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"ragdemo/internal/contextutil"
	"ragdemo/internal/rag"
	"ragdemo/internal/service"
)

// QueryHandler handles POST /api/query.
type QueryHandler struct {
	provider ServiceProvider
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(provider ServiceProvider) *QueryHandler {
	return &QueryHandler{provider: provider}
}

// QueryRequest represents the HTTP request payload for RAG queries.
type QueryRequest struct {
	Query string `json:"query"`
	// TopK defaults to 3 when omitted.
	TopK *int `json:"top_k,omitempty"`
}

// QueryResponse represents the HTTP response payload for RAG queries.
type QueryResponse struct {
	// The generated answer
	Response string `json:"response"`

	// The retrieved chunks in provider order, as received
	Chunks []rag.Chunk `json:"chunks"`
}

// ServeHTTP answers a question. Access control happens in middleware.
//
// Responses: 200 with QueryResponse, 400 for an invalid body, 503 when the
// application is not initialized, 500 for any processing failure.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	topK, msg := validateQuery(req)
	if msg != "" {
		logger.WarnContext(ctx, "query rejected", "reason", msg)
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	svc, err := h.provider.QueryService()
	if err != nil {
		logger.WarnContext(ctx, "query before initialization", "error", err)
		writeError(w, http.StatusServiceUnavailable, "RAG application not initialized")
		return
	}

	result, err := svc.Query(ctx, service.QueryRequest{Query: req.Query, TopK: topK})
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		logger.ErrorContext(ctx, "API query failed", "error", err, "kind", rag.KindOf(err).String())
		writeError(w, http.StatusInternalServerError, "An error occurred processing your request")
		return
	}

	chunks := result.Chunks
	if chunks == nil {
		chunks = []rag.Chunk{}
	}
	writeJSON(w, http.StatusOK, QueryResponse{Response: result.Response, Chunks: chunks})
}

// validateQuery returns the effective top_k, or a client-facing message when the request is invalid.
func validateQuery(req QueryRequest) (int, string) {
	if strings.TrimSpace(req.Query) == "" {
		return 0, "Query is required"
	}
	if utf8.RuneCountInString(req.Query) > service.MaxQueryLength {
		return 0, fmt.Sprintf("Query must be at most %d characters", service.MaxQueryLength)
	}

	if req.TopK == nil {
		return service.DefaultTopK, ""
	}
	if *req.TopK < 1 || *req.TopK > service.MaxTopK {
		return 0, fmt.Sprintf("top_k must be between 1 and %d", service.MaxTopK)
	}
	return *req.TopK, ""
}
