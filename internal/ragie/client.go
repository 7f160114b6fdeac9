package ragie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ragdemo/internal/contextutil"
	"ragdemo/internal/rag"
)

const serviceName = "ragie"

// DefaultTimeout bounds a single retrieval request.
const DefaultTimeout = 30 * time.Second

// Client is a client for the Ragie retrievals API.
type Client struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client = &http.Client{Timeout: d}
	}
}

// NewClient creates a new retrieval client. A trailing slash on baseURL is ignored.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RetrievalRequest is the request payload for POST /retrievals.
type RetrievalRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// RetrievalResponse is the response payload for POST /retrievals.
type RetrievalResponse struct {
	ScoredChunks *[]rag.Chunk `json:"scored_chunks"`
}

// Retrieve returns up to topK chunks for query, in the provider's ranking order.
func (c *Client) Retrieve(ctx context.Context, query string, topK int) ([]rag.Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK < 1 {
		return nil, fmt.Errorf("top_k must be at least 1, got %d", topK)
	}

	body, err := json.Marshal(RetrievalRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/retrievals", bytes.NewBuffer(body))
	if err != nil {
		return nil, &rag.Error{
			Kind:    rag.KindConfiguration,
			Service: serviceName,
			Message: "invalid RAGIE_BASE_URL",
			Err:     err,
		}
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval request failed", "error", err)
		return nil, &rag.Error{
			Kind:    rag.KindNetwork,
			Service: serviceName,
			Message: "could not reach the retrieval API",
			Err:     err,
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &rag.Error{
			Kind:       rag.KindAuthentication,
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    "check your RAGIE_API_KEY",
		}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &rag.Error{
			Kind:       rag.KindConfiguration,
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    "retrieval endpoint not found, check RAGIE_BASE_URL",
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(resp.Body)
		return nil, &rag.Error{
			Kind:       rag.KindRemoteService,
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	var retrieval RetrievalResponse
	if err := json.NewDecoder(resp.Body).Decode(&retrieval); err != nil {
		return nil, &rag.Error{
			Kind:       rag.KindRemoteService,
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    "failed to decode response",
			Err:        err,
		}
	}
	if retrieval.ScoredChunks == nil {
		return nil, &rag.Error{
			Kind:       rag.KindRemoteService,
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    "response has no scored_chunks",
		}
	}

	chunks := *retrieval.ScoredChunks
	missing := 0
	for _, chunk := range chunks {
		if chunk.Text == "" {
			missing++
		}
	}
	if missing > 0 {
		logger.WarnContext(ctx, "retrieved chunks without text", "count", missing)
	}

	logger.DebugContext(ctx, "retrieval completed",
		"top_k", topK,
		"chunks", len(chunks),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return chunks, nil
}
