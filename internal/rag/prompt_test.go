package rag

import (
	"strings"
	"testing"
)

func TestJoinContext_SeparatorCount(t *testing.T) {
	tests := []struct {
		name     string
		passages []string
	}{
		{"empty", nil},
		{"one passage", []string{"a"}},
		{"three passages", []string{"a", "b", "c"}},
		{"empty passage kept", []string{"a", "", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined := JoinContext(tt.passages)

			want := len(tt.passages) - 1
			if want < 0 {
				want = 0
			}
			if got := strings.Count(joined, ContextSeparator); got != want {
				t.Errorf("separator count = %d, want %d", got, want)
			}

			if len(tt.passages) > 0 {
				parts := strings.Split(joined, ContextSeparator)
				for i, p := range tt.passages {
					if parts[i] != p {
						t.Errorf("passage %d = %q, want %q", i, parts[i], p)
					}
				}
			}
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt([]string{"Paris is the capital of France.", "Berlin is in Germany."})

	for _, want := range []string{
		"answer the user's question",
		"acknowledge this",
		"concise",
		"CONTEXT:\nParis is the capital of France.\n\n---\n\nBerlin is in Germany.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("SystemPrompt() missing %q", want)
		}
	}
}
