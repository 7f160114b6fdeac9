package indexer

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	minChunkSize = 50
	maxChunkSize = 700 // runes
)

// GoldmarkChunker splits markdown into heading-scoped chunks.
type GoldmarkChunker struct {
	parser goldmark.Markdown
}

// NewGoldmarkChunker creates a new goldmark chunker.
func NewGoldmarkChunker() *GoldmarkChunker {
	return &GoldmarkChunker{
		parser: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

type headingInfo struct {
	level int
	text  string
}

type section struct {
	headingPath string
	blocks      []string
}

// ChunkMarkdown returns the document title and its chunks.
//
// Every heading starts a new section. A section's blocks are packed into
// chunks of at most maxChunkSize runes; a block longer than that is split at
// whitespace. A short tail is merged into the previous chunk of its section.
func (c *GoldmarkChunker) ChunkMarkdown(content []byte, filename string) (string, []Chunk) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return titleFromFilename(filename), []Chunk{}
	}

	doc := c.parser.Parser().Parse(text.NewReader(content))
	title := extractTitle(doc, content, filename)

	var (
		sections []*section
		current  *section
		stack    []headingInfo
	)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			for len(stack) > 0 && stack[len(stack)-1].level >= heading.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, headingInfo{level: heading.Level, text: linesText(heading, content)})
			current = &section{headingPath: buildHeadingPath(stack)}
			sections = append(sections, current)
			continue
		}

		block := strings.TrimSpace(nodeText(n, content))
		if block == "" {
			continue
		}
		if current == nil {
			// Text before the first heading.
			current = &section{headingPath: "# " + title}
			sections = append(sections, current)
		}
		current.blocks = append(current.blocks, block)
	}

	chunks := []Chunk{}
	for _, s := range sections {
		for _, t := range packBlocks(s.blocks) {
			chunks = append(chunks, Chunk{
				Index:       len(chunks),
				HeadingPath: s.headingPath,
				Text:        t,
			})
		}
	}
	return title, chunks
}

// extractTitle picks the first level-1 heading, then the first level-2
// heading, then the file name.
func extractTitle(doc ast.Node, content []byte, filename string) string {
	var h2 string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		switch {
		case heading.Level == 1:
			if t := linesText(heading, content); t != "" {
				return t
			}
		case heading.Level == 2 && h2 == "":
			h2 = linesText(heading, content)
		}
	}
	if h2 != "" {
		return h2
	}
	return titleFromFilename(filename)
}

// titleFromFilename turns "release-notes_v2.md" into "Release Notes V2".
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func buildHeadingPath(stack []headingInfo) string {
	parts := make([]string, len(stack))
	for i, h := range stack {
		parts[i] = strings.Repeat("#", h.level) + " " + h.text
	}
	return strings.Join(parts, " > ")
}

// nodeText returns the source text of a block. Leaf blocks keep their raw
// lines; containers such as lists, quotes and tables join their children.
func nodeText(n ast.Node, src []byte) string {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return linesText(n, src)
	}
	if t, ok := n.(*ast.Text); ok {
		return string(t.Segment.Value(src))
	}

	sep := "\n"
	switch {
	case n.Type() == ast.TypeInline:
		sep = ""
	case n.Kind() == extast.KindTableRow || n.Kind() == extast.KindTableHeader:
		sep = " | "
	}

	var parts []string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t := nodeText(child, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}

func linesText(n ast.Node, src []byte) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimRight(string(seg.Value(src)), "\r\n"))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// packBlocks groups blocks into chunks separated by blank lines.
func packBlocks(blocks []string) []string {
	var (
		chunks  []string
		current []string
		size    int
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current, size = nil, 0
		}
	}

	for _, block := range blocks {
		for _, piece := range splitRunes(block, maxChunkSize) {
			n := len([]rune(piece))
			if size > 0 && size+2+n > maxChunkSize {
				flush()
			}
			current = append(current, piece)
			if size > 0 {
				size += 2
			}
			size += n
		}
	}
	flush()

	if len(chunks) > 1 && len([]rune(chunks[len(chunks)-1])) < minChunkSize {
		last := chunks[len(chunks)-1]
		chunks = chunks[:len(chunks)-1]
		chunks[len(chunks)-1] += "\n\n" + last
	}
	return chunks
}

// splitRunes cuts s into pieces of at most limit runes, preferring whitespace.
func splitRunes(s string, limit int) []string {
	runes := []rune(s)
	var pieces []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		pieces = append(pieces, strings.TrimSpace(string(runes[:cut])))
		runes = []rune(strings.TrimLeftFunc(string(runes[cut:]), unicode.IsSpace))
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}
