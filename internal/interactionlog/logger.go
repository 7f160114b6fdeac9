// Package interactionlog records every answered query to rotating JSON documents.
//
// Each file is a single JSON document: a session header plus the list of
// interactions appended so far. Appends rewrite the whole document, so access
// is serialized per Logger. Once the active file reaches the size limit a new
// file is started; finished files are never touched again.
package interactionlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragdemo/internal/contextutil"
	"ragdemo/internal/rag"
)

// DefaultMaxFileSize is the rotation threshold in bytes.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

const (
	filePrefix = "rag_log_"
	fileExt    = ".json"
	timeLayout = "20060102_150405"
	// maxNameAttempts bounds the _N suffixes tried when a timestamp name is taken.
	maxNameAttempts = 1000
	previewLength   = 50
)

// Record is one logged interaction.
type Record struct {
	Timestamp time.Time   `json:"timestamp"`
	Query     string      `json:"query"`
	Response  string      `json:"response"`
	Chunks    []rag.Chunk `json:"chunks"`
}

// Document is the content of one log file.
type Document struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Queries   []Record  `json:"queries"`
}

// Logger appends interactions to the active log file.
type Logger struct {
	dir       string
	maxSize   int64
	sessionID string
	now       func() time.Time
	logger    *slog.Logger

	mu     sync.Mutex
	active string // empty while logging is disabled after a failed recovery
}

// Option configures a Logger.
type Option func(*Logger)

// WithMaxFileSize sets the rotation threshold in bytes.
func WithMaxFileSize(n int64) Option {
	return func(l *Logger) {
		if n > 0 {
			l.maxSize = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// WithLogger sets the operational logger used to report failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.logger = logger
	}
}

// New creates dir if needed, generates a session id and creates the first log file.
func New(dir string, opts ...Option) (*Logger, error) {
	l := &Logger{
		dir:       dir,
		maxSize:   DefaultMaxFileSize,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path, err := l.createFile()
	if err != nil {
		return nil, err
	}
	l.active = path

	return l, nil
}

// SessionID returns the session identifier written into every file.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// ActiveFile returns the path of the file that receives the next record,
// or an empty string while logging is disabled.
func (l *Logger) ActiveFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// LogInteraction appends a record for one answered query.
// Failures are reported to the operational log and never returned.
func (l *Logger) LogInteraction(ctx context.Context, query, response string, chunks []rag.Chunk) {
	logger := l.opLogger(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.rotateIfNeeded(); err != nil {
		logger.ErrorContext(ctx, "failed to rotate interaction log", "error", err)
		return
	}

	record := Record{
		Timestamp: l.now(),
		Query:     query,
		Response:  response,
		Chunks:    chunks,
	}

	if err := l.appendRecord(record); err != nil {
		logger.ErrorContext(ctx, "error writing to interaction log", "file", l.active, "error", err)

		path, err := l.createFile()
		if err != nil {
			logger.ErrorContext(ctx, "failed to create new interaction log file", "error", err)
			l.active = ""
			return
		}
		l.active = path
		return
	}

	logger.InfoContext(ctx, "logged interaction", "query", preview(query), "file", filepath.Base(l.active))
}

// rotateIfNeeded starts a new file when the active one reached the size limit,
// or when logging was disabled by an earlier failure.
func (l *Logger) rotateIfNeeded() error {
	if l.active != "" {
		info, err := os.Stat(l.active)
		if err != nil || info.Size() < l.maxSize {
			// A missing file surfaces as an append error and goes through recovery.
			return nil
		}
	}

	path, err := l.createFile()
	if err != nil {
		l.active = ""
		return err
	}
	l.active = path
	return nil
}

func (l *Logger) appendRecord(record Record) error {
	data, err := os.ReadFile(l.active)
	if err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode log file: %w", err)
	}

	doc.Queries = append(doc.Queries, record)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode log file: %w", err)
	}

	return writeFileAtomic(l.active, out)
}

// createFile creates a new log document named after the current time.
// Files are opened with O_EXCL, so an existing file is never overwritten.
func (l *Logger) createFile() (string, error) {
	now := l.now()
	doc := Document{
		SessionID: l.sessionID,
		CreatedAt: now,
		Queries:   []Record{},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode log header: %w", err)
	}

	base := filePrefix + now.Format(timeLayout)
	for i := 0; i < maxNameAttempts; i++ {
		name := base + fileExt
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, fileExt)
		}
		path := filepath.Join(l.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create log file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write log file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close log file: %w", err)
		}
		return path, nil
	}

	return "", fmt.Errorf("no free log file name for %s", base)
}

func (l *Logger) opLogger(ctx context.Context) *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return contextutil.LoggerFromContext(ctx)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rag_log_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace log file: %w", err)
	}
	return nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength]) + "..."
}
