package llm

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

// DefaultTemperature is the sampling temperature used for answers.
const DefaultTemperature float32 = 0.7

// Client is a client for an OpenAI-compatible chat completions API.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewClient creates a new LLM client. baseURL is the API root including the
// version segment, e.g. "https://api.openai.com/v1". A zero timeout means none.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatChoiceMessage represents the message in a chat choice.
type ChatChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int               `json:"index"`
	Message      ChatChoiceMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// Generate answers query using passages as context. Passages are joined in
// order into the system prompt; the answer is the first choice's content.
// Every failure is returned as a completion *rag.Error.
func (c *Client) Generate(ctx context.Context, query string, passages []string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	systemPrompt := rag.SystemPrompt(passages)
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: query},
	}

	logger.DebugContext(ctx, "sending request to LLM",
		"model", c.Model,
		"passages", len(passages),
		"system_prompt_length", len(systemPrompt),
	)

	answer, err := c.ChatWithMessages(ctx, messages, ChatParams{Temperature: DefaultTemperature})
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return "", &rag.Error{
			Kind:    rag.KindCompletion,
			Service: "completion",
			Err:     err,
		}
	}

	logger.DebugContext(ctx, "received LLM response", "answer_length", len(answer))
	return answer, nil
}

// ChatWithMessages sends a structured chat completion request.
// An empty params.Model uses the client's model.
func (c *Client) ChatWithMessages(ctx context.Context, messages []Message, params ChatParams) (string, error) {
	url := c.BaseURL + "/chat/completions"

	model := params.Model
	if model == "" {
		model = c.Model
	}

	payload := ChatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: params.MaxTokens,
	}
	if params.Temperature != 0 {
		temperature := params.Temperature
		payload.Temperature = &temperature
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}
