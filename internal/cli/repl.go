// Package cli implements the interactive question loop.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"ragdemo/internal/rag"
	"ragdemo/internal/service"
)

const (
	prompt      = "\nAsk aiLeaders chat a question: "
	chunkPrompt = "Show retrieved chunks? [y/n] "
	maxLineSize = 1024 * 1024
)

var (
	wideRule   = strings.Repeat("=", 50)
	narrowRule = strings.Repeat("-", 50)
	chunkRule  = strings.Repeat("-", 40)
)

// REPL reads questions from in and writes answers to out.
type REPL struct {
	svc     service.QueryService
	scanner *bufio.Scanner
	out     io.Writer
	topK    int

	title lipgloss.Style
	label lipgloss.Style
	muted lipgloss.Style
	alert lipgloss.Style
}

// New creates a REPL. topK <= 0 selects service.DefaultTopK.
func New(svc service.QueryService, in io.Reader, out io.Writer, topK int) *REPL {
	if topK <= 0 {
		topK = service.DefaultTopK
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	// Styles degrade to plain text when out is not a terminal.
	renderer := lipgloss.NewRenderer(out)
	return &REPL{
		svc:     svc,
		scanner: scanner,
		out:     out,
		topK:    topK,
		title:   renderer.NewStyle().Bold(true),
		label:   renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:   renderer.NewStyle().Foreground(lipgloss.Color("8")),
		alert:   renderer.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Run loops until the user types exit, input ends, or ctx is canceled.
// Query errors are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	r.printWelcome()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.printf("%s", prompt)
		line, ok := r.readLine()
		if !ok {
			r.println("")
			r.println("Goodbye!")
			return r.scanner.Err()
		}
		query := strings.TrimSpace(line)

		switch strings.ToLower(query) {
		case "exit":
			r.println("Goodbye!")
			return nil
		case "help":
			r.printHelp()
			continue
		case "":
			r.println("Please enter a question.")
			continue
		}

		r.ask(ctx, query)
	}
}

func (r *REPL) ask(ctx context.Context, query string) {
	r.printf("\nProcessing query: '%s'\n", query)
	start := time.Now()

	result, err := r.svc.Query(ctx, service.QueryRequest{Query: query, TopK: r.topK})
	if err != nil {
		r.println("")
		r.println(r.alert.Render("Error: " + err.Error()))
		r.println("Please try again or check your API keys.")
		return
	}

	r.printf("Query processed in %.2f seconds\n", time.Since(start).Seconds())
	r.printResponse(result.Response)

	r.printf("%s", chunkPrompt)
	answer, ok := r.readLine()
	if ok && strings.EqualFold(strings.TrimSpace(answer), "y") {
		r.printChunks(result.Chunks)
	}
}

func (r *REPL) printWelcome() {
	r.println("")
	r.println(r.title.Render("==== RAG Application ===="))
	r.println("Type 'exit' to quit the application")
	r.println("Type 'help' for additional commands")
	r.println(r.title.Render("========================"))
}

func (r *REPL) printHelp() {
	r.println("")
	r.println(r.label.Render("Available commands:"))
	r.println("  exit - Exit the application")
	r.println("  help - Display this help message")
	r.println("  <query> - Ask a question to search for information")
}

func (r *REPL) printResponse(response string) {
	r.println("")
	r.println(r.muted.Render(wideRule))
	r.println(r.label.Render("RESPONSE:"))
	r.println(r.muted.Render(narrowRule))
	r.println(response)
	r.println(r.muted.Render(wideRule))
}

func (r *REPL) printChunks(chunks []rag.Chunk) {
	r.println("")
	r.println(r.label.Render("RETRIEVED CHUNKS:"))
	r.println(r.muted.Render(narrowRule))
	for i, chunk := range chunks {
		r.println("")
		r.println(r.label.Render(fmt.Sprintf("Chunk %d (Score: %s):", i+1, chunk.ScoreLabel())))
		r.println(r.muted.Render(chunkRule))
		text := chunk.Text
		if text == "" {
			text = "No text available"
		}
		r.println(text)
		r.println(r.muted.Render(chunkRule))
	}
}

func (r *REPL) readLine() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	return r.scanner.Text(), true
}

func (r *REPL) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}
