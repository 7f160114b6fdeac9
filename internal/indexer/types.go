package indexer

// Chunk represents a chunk of text from a markdown document.
type Chunk struct {
	Index       int    // Chunk index within the document, from 0
	HeadingPath string // Format: "# Heading1 > ## Heading2"
	Text        string
}

// SourceFile is a markdown file found under the indexed directory.
type SourceFile struct {
	RelPath string // Slash-separated path relative to the root, e.g. "guides/setup.md"
	AbsPath string
}

// Stats summarizes one indexing run.
type Stats struct {
	Files       int `json:"files"`
	EmptyFiles  int `json:"empty_files"`
	FailedFiles int `json:"failed_files"`
	Chunks      int `json:"chunks"`
}
