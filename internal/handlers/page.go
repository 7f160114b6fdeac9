package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"ragdemo/internal/contextutil"
	"ragdemo/internal/rag"
	"ragdemo/internal/service"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Inline messages shown on the chat page.
const (
	msgQueryTooLong   = "Query length exceeds maximum allowed (1000 characters)"
	msgEmptyQuery     = "Please enter a question."
	msgNotInitialized = "RAG application not initialized. Check API keys."
	msgQueryFailed    = "An error occurred while processing your request."
)

// ChatPageHandler serves the HTML chat page (GET /) and its form submissions (POST /chat).
// Failures are shown inline; the page always renders with 200.
type ChatPageHandler struct {
	provider ServiceProvider
	markdown goldmark.Markdown
}

// chatPageData holds template data for the chat page.
type chatPageData struct {
	Query    string
	Response template.HTML
	Chunks   []chunkView
	Error    string
}

type chunkView struct {
	Number int
	Score  string
	Text   string
}

// NewChatPageHandler creates a new ChatPageHandler.
func NewChatPageHandler(provider ServiceProvider) *ChatPageHandler {
	return &ChatPageHandler{
		provider: provider,
		// Raw HTML in model output is omitted by the renderer.
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
		),
	}
}

// ServeHTTP renders the empty page on GET and answers the submitted question on POST.
func (h *ChatPageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, r, chatPageData{})
	case http.MethodPost:
		h.handleForm(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ChatPageHandler) handleForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseForm(); err != nil {
		logger.WarnContext(ctx, "invalid form body", "error", err)
		h.render(w, r, chatPageData{Error: msgEmptyQuery})
		return
	}
	query := r.PostForm.Get("query")

	if runes := []rune(query); len(runes) > service.MaxQueryLength {
		logger.WarnContext(ctx, "query too long", "length", len(runes))
		h.render(w, r, chatPageData{
			Query: string(runes[:service.MaxQueryLength]) + "...",
			Error: msgQueryTooLong,
		})
		return
	}

	svc, err := h.provider.QueryService()
	if err != nil {
		logger.WarnContext(ctx, "chat form used before initialization", "error", err)
		h.render(w, r, chatPageData{Error: msgNotInitialized})
		return
	}

	result, err := svc.Query(ctx, service.QueryRequest{Query: query, TopK: service.DefaultTopK})
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			h.render(w, r, chatPageData{Query: query, Error: msgEmptyQuery})
			return
		}
		logger.ErrorContext(ctx, "chat form query failed", "error", err, "kind", rag.KindOf(err).String())
		h.render(w, r, chatPageData{Query: query, Error: msgQueryFailed})
		return
	}

	answer, err := h.renderMarkdown(result.Response)
	if err != nil {
		logger.ErrorContext(ctx, "failed to render answer", "error", err)
		answer = template.HTML(template.HTMLEscapeString(result.Response))
	}

	chunks := make([]chunkView, len(result.Chunks))
	for i, c := range result.Chunks {
		chunks[i] = chunkView{Number: i + 1, Score: c.ScoreLabel(), Text: c.Text}
	}

	h.render(w, r, chatPageData{Query: query, Response: answer, Chunks: chunks})
}

func (h *ChatPageHandler) renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func (h *ChatPageHandler) render(w http.ResponseWriter, r *http.Request, data chatPageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		contextutil.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "failed to execute chat template", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
