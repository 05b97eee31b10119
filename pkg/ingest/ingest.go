package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"os"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/textsplitter"

	"ai-tutor-be/pkg/vectorstore"
)

const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 60
)

// Splitter cuts extracted text into retrieval-sized pieces.
type Splitter interface {
	SplitText(text string) ([]string, error)
}

// NewSplitter returns the default recursive character splitter.
func NewSplitter(chunkSize, chunkOverlap int) Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
}

// Ingestor extracts text from uploaded study material and chunks it for
// indexing.
type Ingestor struct {
	splitter Splitter
}

func New(splitter Splitter) *Ingestor {
	return &Ingestor{splitter: splitter}
}

// SupportedExt reports whether the file extension can be ingested.
func SupportedExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// ExtractText reads the file at path and returns its plain text content.
// PDF pages are joined with blank lines.
func (i *Ingestor) ExtractText(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		info, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("failed to stat document: %w", err)
		}
		docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to parse pdf: %w", err)
		}
		pages := make([]string, 0, len(docs))
		for _, d := range docs {
			pages = append(pages, d.PageContent)
		}
		return strings.Join(pages, "\n\n"), nil
	case ".txt", ".md":
		docs, err := documentloaders.NewText(f).Load(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read document: %w", err)
		}
		if len(docs) == 0 {
			return "", nil
		}
		return docs[0].PageContent, nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// Chunk splits text and assigns sequential chunk indexes. Whitespace-only
// pieces are dropped.
func (i *Ingestor) Chunk(text string) ([]vectorstore.Chunk, error) {
	pieces, err := i.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	chunks := make([]vectorstore.Chunk, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p) == "" {
			continue
		}
		chunks = append(chunks, vectorstore.Chunk{Index: len(chunks), Content: p})
	}
	return chunks, nil
}

// Process extracts and chunks a file in one call.
func (i *Ingestor) Process(ctx context.Context, path string) ([]vectorstore.Chunk, error) {
	text, err := i.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document contains no extractable text")
	}
	return i.Chunk(text)
}
