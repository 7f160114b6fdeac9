package rag

import (
	"encoding/json"
	"fmt"
)

// Chunk is one retrieved passage.
//
// Text and Score are typed; every other provider field (ids, metadata, links, ...)
// is kept in Extra as raw JSON and written back unchanged, so a chunk round-trips
// through the API response and the interaction log exactly as the provider sent it.
type Chunk struct {
	// Text is the passage content. Empty when the provider omitted it.
	Text string
	// Score is the provider's relevance score, nil when absent.
	Score *float64
	// Extra holds the remaining provider fields, keyed by JSON name.
	Extra map[string]json.RawMessage
}

// NewChunk creates a chunk with a text and score and no extra fields.
func NewChunk(text string, score float64) Chunk {
	return Chunk{Text: text, Score: &score}
}

// HasScore reports whether the provider supplied a score.
func (c Chunk) HasScore() bool {
	return c.Score != nil
}

// ScoreLabel formats the score for display, or "N/A" when absent.
func (c Chunk) ScoreLabel() string {
	if c.Score == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", *c.Score)
}

// UnmarshalJSON decodes a provider chunk object.
// A missing or null text field decodes to an empty Text.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("chunk must be a JSON object: %w", err)
	}

	*c = Chunk{}

	if raw, ok := fields["text"]; ok {
		var text *string
		if err := json.Unmarshal(raw, &text); err != nil {
			return fmt.Errorf("chunk text must be a string: %w", err)
		}
		if text != nil {
			c.Text = *text
		}
		delete(fields, "text")
	}

	if raw, ok := fields["score"]; ok {
		var score *float64
		if err := json.Unmarshal(raw, &score); err != nil {
			return fmt.Errorf("chunk score must be a number: %w", err)
		}
		c.Score = score
		delete(fields, "score")
	}

	if len(fields) > 0 {
		c.Extra = fields
	}
	return nil
}

// MarshalJSON encodes the chunk with its extra fields merged back in.
func (c Chunk) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["text"] = c.Text
	if c.Score != nil {
		out["score"] = *c.Score
	}
	return json.Marshal(out)
}

// Texts extracts the text of each chunk, preserving order.
func Texts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	return texts
}

// QueryResult is the outcome of one RAG query.
type QueryResult struct {
	// Response is the generated answer.
	Response string `json:"response"`
	// Chunks are the retrieved passages in provider order.
	Chunks []Chunk `json:"chunks"`
}
