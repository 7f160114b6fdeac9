package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ragdemo/internal/service"
)

var envVars = []string{
	"API_ACCESS_KEY", "API_RATE_BURST", "API_RATE_LIMIT", "COMPLETION_TIMEOUT", "DEBUG",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL", "HOST", "LLM_API_KEY", "LLM_MODEL", "LOG_DIR",
	"LOG_FILE", "LOG_FILE_MAX_MB", "LOG_FORMAT", "LOG_LEVEL", "LOG_MAX_FILE_MB", "OPENAI_API_KEY",
	"OPENAI_API_URL", "PORT", "QDRANT_API_KEY", "QDRANT_COLLECTION", "QDRANT_TEXT_FIELD",
	"QDRANT_URL", "RAGIE_API_KEY", "RAGIE_BASE_URL", "RETRIEVAL_BACKEND", "RETRIEVAL_TIMEOUT",
}

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupCmdTest(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	// Keep a stray .env in a parent directory from leaking into the run.
	t.Chdir(t.TempDir())

	chatTopK = service.DefaultTopK
	chatLogInteractions = true
	t.Cleanup(closeLogSink)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	setupCmdTest(t)

	out, err := execute(t, "", "--help")
	if err != nil {
		t.Fatalf("root --help failed: %v", err)
	}
	for _, want := range []string{"ragdemo", "chat", "serve", "index"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	setupCmdTest(t)

	if _, err := execute(t, "", "nonexistent-command"); err == nil {
		t.Fatal("expected error for unknown command, got nil")
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	setupCmdTest(t)
	t.Setenv("RETRIEVAL_BACKEND", "elastic")

	if _, err := execute(t, "exit\n", "chat"); err == nil {
		t.Fatal("expected configuration error, got nil")
	}
}

func TestChatCmd_MissingCredentials(t *testing.T) {
	setupCmdTest(t)

	out, err := execute(t, "exit\n", "chat")
	if err == nil {
		t.Fatal("expected error for missing credentials, got nil")
	}
	if !strings.Contains(out, "Missing API keys: RAGIE_API_KEY, OPENAI_API_KEY") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "RAG Application") {
		t.Error("question loop started without credentials")
	}
}

func TestChatCmd_InvalidTopK(t *testing.T) {
	setupCmdTest(t)

	if _, err := execute(t, "exit\n", "chat", "--top-k", "11"); err == nil {
		t.Fatal("expected error for --top-k 11, got nil")
	}
}

func TestChatCmd_AnswersQuestion(t *testing.T) {
	setupCmdTest(t)

	ragie := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/retrievals" {
			t.Errorf("ragie path = %s", r.URL.Path)
		}
		var req struct {
			TopK int `json:"top_k"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.TopK != 2 {
			t.Errorf("top_k = %d, want 2", req.TopK)
		}
		_, _ = w.Write([]byte(`{"scored_chunks":[{"text":"Go was announced in 2009.","score":0.8}]}`))
	}))
	defer ragie.Close()

	completion := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"In 2009."}}]}`))
	}))
	defer completion.Close()

	logDir := filepath.Join(t.TempDir(), "logs")
	t.Setenv("RAGIE_API_KEY", "ragie-key")
	t.Setenv("RAGIE_BASE_URL", ragie.URL)
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("OPENAI_API_URL", completion.URL)
	t.Setenv("LOG_DIR", logDir)

	out, err := execute(t, "When was Go announced?\ny\nexit\n", "chat", "--top-k", "2")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	for _, want := range []string{
		"Processing query: 'When was Go announced?'",
		"In 2009.",
		"Chunk 1 (Score: 0.8000):",
		"Go was announced in 2009.",
		"Goodbye!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	files, _ := filepath.Glob(filepath.Join(logDir, "rag_log_*.json"))
	if len(files) != 1 {
		t.Fatalf("interaction log files = %v, want 1", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read interaction log: %v", err)
	}
	if !strings.Contains(string(data), "When was Go announced?") {
		t.Errorf("interaction log missing query: %s", data)
	}
}

func TestRunServer_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, ln, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			w.WriteHeader(nethttp.StatusTeapot)
		}))
	}()

	resp, err := nethttp.Get("http://" + ln.Addr().String())
	if err != nil {
		cancel()
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != nethttp.StatusTeapot {
		t.Errorf("status = %d, want %d", resp.StatusCode, nethttp.StatusTeapot)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServer() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestBrowserURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{host: "127.0.0.1", port: 8000, want: "http://127.0.0.1:8000"},
		{host: "0.0.0.0", port: 9000, want: "http://127.0.0.1:9000"},
		{host: "", port: 80, want: "http://127.0.0.1:80"},
		{host: "::1", port: 8000, want: "http://[::1]:8000"},
		{host: "example.local", port: 8080, want: "http://example.local:8080"},
	}
	for _, tt := range tests {
		if got := browserURL(tt.host, tt.port); got != tt.want {
			t.Errorf("browserURL(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestIndexCmd_Args(t *testing.T) {
	setupCmdTest(t)

	if _, err := execute(t, "", "index"); err == nil {
		t.Fatal("expected error without a directory, got nil")
	}
}

func TestIndexCmd_MissingCredentials(t *testing.T) {
	setupCmdTest(t)

	_, err := execute(t, "", "index", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("error = %v, want missing OPENAI_API_KEY", err)
	}
}
