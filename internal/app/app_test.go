package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ragdemo/internal/config"
	"ragdemo/internal/service"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		RagieAPIKey:       "ragie-key",
		RagieBaseURL:      "http://127.0.0.1:1",
		LLMAPIKey:         "llm-key",
		LLMBaseURL:        "http://127.0.0.1:1/v1",
		LLMModel:          "test-model",
		RetrievalBackend:  config.BackendRagie,
		RetrievalTimeout:  time.Second,
		CompletionTimeout: time.Second,
		LogDir:            filepath.Join(t.TempDir(), "logs"),
		LogMaxFileMB:      10,
	}
}

func TestNew_Initialized(t *testing.T) {
	cfg := testConfig(t)
	a := New(context.Background(), cfg, Options{})

	if !a.Ready() {
		t.Fatalf("Ready() = false, init error: %v", a.InitError())
	}
	svc, err := a.QueryService()
	if err != nil || svc == nil {
		t.Fatalf("QueryService() = %v, %v", svc, err)
	}
	if a.InteractionLog() == nil {
		t.Fatal("InteractionLog() = nil, want logger")
	}
	if _, err := os.Stat(a.InteractionLog().ActiveFile()); err != nil {
		t.Errorf("interaction log file not created: %v", err)
	}
	if issues := a.HealthIssues(context.Background()); len(issues) != 0 {
		t.Errorf("HealthIssues() = %v, want none", issues)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	cfg := testConfig(t)
	cfg.RagieAPIKey = ""
	cfg.LLMAPIKey = ""

	a := New(context.Background(), cfg, Options{})

	if a.Ready() {
		t.Fatal("Ready() = true, want false")
	}
	_, err := a.QueryService()
	if !errors.Is(err, service.ErrNotInitialized) {
		t.Fatalf("QueryService() error = %v, want ErrNotInitialized", err)
	}
	if !strings.Contains(err.Error(), "RAGIE_API_KEY") || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error %q should name the missing keys", err)
	}
	if issues := a.HealthIssues(context.Background()); len(issues) != 1 {
		t.Errorf("HealthIssues() = %v, want one issue", issues)
	}
	if _, err := os.Stat(cfg.LogDir); !os.IsNotExist(err) {
		t.Error("log directory should not be created for an uninitialized app")
	}
}

func TestNew_DisableInteractionLog(t *testing.T) {
	cfg := testConfig(t)
	a := New(context.Background(), cfg, Options{DisableInteractionLog: true})

	if !a.Ready() {
		t.Fatalf("Ready() = false: %v", a.InitError())
	}
	if a.InteractionLog() != nil {
		t.Error("InteractionLog() should be nil when disabled")
	}
}

func TestNew_UnwritableLogDir(t *testing.T) {
	cfg := testConfig(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	cfg.LogDir = filepath.Join(file, "logs")

	a := New(context.Background(), cfg, Options{})
	if !a.Ready() {
		t.Fatalf("Ready() = false, want queries served without interaction log: %v", a.InitError())
	}
	if a.InteractionLog() != nil {
		t.Error("InteractionLog() should be nil when the directory cannot be created")
	}
}

type fakeHealth struct{ err error }

func (f fakeHealth) Healthy(context.Context) error { return f.err }

func TestApp_HealthIssues_Backend(t *testing.T) {
	a := New(context.Background(), testConfig(t), Options{DisableInteractionLog: true})
	a.health = fakeHealth{err: errors.New("collection missing")}

	issues := a.HealthIssues(context.Background())
	if len(issues) != 1 || !strings.Contains(issues[0], "collection missing") {
		t.Errorf("HealthIssues() = %v", issues)
	}
}

func TestNewUninitialized(t *testing.T) {
	a := NewUninitialized(errors.New("boom"))
	_, err := a.QueryService()
	if !errors.Is(err, service.ErrNotInitialized) {
		t.Errorf("QueryService() error = %v, want ErrNotInitialized", err)
	}

	if _, err := NewUninitialized(nil).QueryService(); !errors.Is(err, service.ErrNotInitialized) {
		t.Errorf("QueryService() error = %v, want ErrNotInitialized", err)
	}
}
