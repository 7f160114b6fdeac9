package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		sentinel error
	}{
		{"authentication", &Error{Kind: KindAuthentication, Service: "ragie"}, ErrAuthentication},
		{"configuration", &Error{Kind: KindConfiguration, Service: "ragie"}, ErrConfiguration},
		{"remote service", &Error{Kind: KindRemoteService, Service: "ragie", StatusCode: 500}, ErrRemoteService},
		{"network", &Error{Kind: KindNetwork, Service: "ragie"}, ErrNetwork},
		{"completion", &Error{Kind: KindCompletion, Service: "completion"}, ErrCompletion},
	}

	all := []error{ErrAuthentication, ErrConfiguration, ErrRemoteService, ErrNetwork, ErrCompletion}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			for _, s := range all {
				got := errors.Is(wrapped, s)
				want := s == tt.sentinel
				if got != want {
					t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err.Kind, s, got, want)
				}
			}
		})
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	err := &Error{Kind: KindNetwork, Service: "ragie", Err: context.DeadlineExceeded}

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is() should reach the cause")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("errors.Is() should reach the kind sentinel")
	}
}

func TestError_Error(t *testing.T) {
	err := &Error{
		Kind:       KindRemoteService,
		Service:    "ragie",
		StatusCode: 502,
		Body:       "bad gateway",
	}

	msg := err.Error()
	for _, want := range []string{"ragie", "remote service error", "HTTP 502", "bad gateway"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain error", errors.New("boom"), KindUnknown},
		{"direct", &Error{Kind: KindAuthentication}, KindAuthentication},
		{"wrapped", fmt.Errorf("ctx: %w", &Error{Kind: KindCompletion}), KindCompletion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if KindNetwork.String() != "network" {
		t.Errorf("KindNetwork.String() = %q", KindNetwork.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
}
