// Package app wires the configured clients into a query service and records
// whether that succeeded, so front ends can report an uninitialized application
// instead of failing at startup.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"ragdemo/internal/config"
	"ragdemo/internal/contextutil"
	"ragdemo/internal/interactionlog"
	"ragdemo/internal/llm"
	"ragdemo/internal/ragie"
	"ragdemo/internal/service"
	"ragdemo/internal/vectorstore"
)

// HealthChecker is implemented by retrievers that can probe their backend.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// App is the application context shared by the front ends.
type App struct {
	query        service.QueryService
	health       HealthChecker
	interactions *interactionlog.Logger
	closers      []io.Closer
	initErr      error
}

// Options tunes New.
type Options struct {
	// DisableInteractionLog skips creating the interaction log.
	DisableInteractionLog bool
}

// New builds the application from cfg. It never fails: when credentials are
// missing or a client cannot be built, the returned App reports the cause from
// QueryService and Ready returns false.
func New(ctx context.Context, cfg *config.Config, opts Options) *App {
	logger := contextutil.LoggerFromContext(ctx)
	a := &App{}

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		a.initErr = service.WrapError(service.ErrNotInitialized, "missing API keys: "+strings.Join(missing, ", "))
		logger.WarnContext(ctx, "RAG application not initialized", "missing", missing)
		return a
	}

	retriever, err := a.buildRetriever(cfg)
	if err != nil {
		a.initErr = fmt.Errorf("%w: %w", service.ErrNotInitialized, err)
		logger.ErrorContext(ctx, "failed to build retriever", "backend", cfg.RetrievalBackend, "error", err)
		return a
	}
	if hc, ok := retriever.(HealthChecker); ok {
		a.health = hc
	}

	generator := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.CompletionTimeout)

	var recorder service.InteractionRecorder
	if !opts.DisableInteractionLog {
		interactions, err := interactionlog.New(cfg.LogDir,
			interactionlog.WithMaxFileSize(int64(cfg.LogMaxFileMB)*1024*1024))
		if err != nil {
			// Answers are still served; only the audit trail is lost.
			logger.ErrorContext(ctx, "interaction log disabled", "dir", cfg.LogDir, "error", err)
		} else {
			a.interactions = interactions
			recorder = interactions
			logger.InfoContext(ctx, "interaction log ready", "file", interactions.ActiveFile(), "session_id", interactions.SessionID())
		}
	}

	a.query = service.NewQueryService(retriever, generator, recorder)
	logger.InfoContext(ctx, "RAG application initialized", "backend", cfg.RetrievalBackend, "model", cfg.LLMModel)
	return a
}

// NewWithService wraps an already built service. Used by tests and embedders.
func NewWithService(svc service.QueryService) *App {
	return &App{query: svc}
}

// NewUninitialized returns an App whose every query fails with cause.
func NewUninitialized(cause error) *App {
	if cause == nil {
		cause = service.ErrNotInitialized
	}
	if !errors.Is(cause, service.ErrNotInitialized) {
		cause = fmt.Errorf("%w: %w", service.ErrNotInitialized, cause)
	}
	return &App{initErr: cause}
}

func (a *App) buildRetriever(cfg *config.Config) (service.Retriever, error) {
	switch cfg.RetrievalBackend {
	case config.BackendQdrant:
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, 0, cfg.CompletionTimeout)
		return vectorstore.NewRetriever(embedder, store, cfg.QdrantCollection, cfg.QdrantTextField), nil
	case config.BackendRagie, "":
		return ragie.NewClient(cfg.RagieBaseURL, cfg.RagieAPIKey, ragie.WithTimeout(cfg.RetrievalTimeout)), nil
	default:
		return nil, fmt.Errorf("unknown retrieval backend %q", cfg.RetrievalBackend)
	}
}

// QueryService returns the query service, or an error wrapping
// service.ErrNotInitialized when the application could not be built.
func (a *App) QueryService() (service.QueryService, error) {
	if a.initErr != nil {
		return nil, a.initErr
	}
	if a.query == nil {
		return nil, service.ErrNotInitialized
	}
	return a.query, nil
}

// Ready reports whether queries can be served.
func (a *App) Ready() bool {
	_, err := a.QueryService()
	return err == nil
}

// InitError returns why the application is not ready, or nil.
func (a *App) InitError() error {
	_, err := a.QueryService()
	return err
}

// InteractionLog returns the interaction logger, or nil when disabled.
func (a *App) InteractionLog() *interactionlog.Logger {
	return a.interactions
}

// HealthIssues lists problems that prevent serving queries. Empty means healthy.
func (a *App) HealthIssues(ctx context.Context) []string {
	if err := a.InitError(); err != nil {
		return []string{err.Error()}
	}
	if a.health == nil {
		return nil
	}
	if err := a.health.Healthy(ctx); err != nil {
		return []string{"retrieval backend: " + err.Error()}
	}
	return nil
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
