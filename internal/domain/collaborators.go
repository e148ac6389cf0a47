package domain

import "context"

// PDFMetadata describes an extracted document.
type PDFMetadata struct {
	PageCount int    `json:"pageCount"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	WordCount int    `json:"wordCount"`
	CharCount int    `json:"charCount"`
}

// PDFExtraction is the result of a PDF text extraction. Failures are
// reported through Success/Error rather than a Go error.
type PDFExtraction struct {
	Success       bool         `json:"success"`
	ExtractedText string       `json:"extractedText"`
	Error         string       `json:"error,omitempty"`
	Metadata      *PDFMetadata `json:"metadata,omitempty"`
}

// PDFExtractor extracts plain text from a PDF given as a data URI or as
// raw file bytes.
type PDFExtractor interface {
	ExtractDataURI(ctx context.Context, dataURI string) PDFExtraction
	ExtractBytes(ctx context.Context, data []byte) PDFExtraction
}

// Transcriber converts an audio data URI to text. An empty transcript means
// no speech was detected and is not an error.
type Transcriber interface {
	Transcribe(ctx context.Context, audioDataURI string) (string, error)
}

// Speaker converts text to an audio data URI.
type Speaker interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// WebSearcher returns background context for a query. An empty string
// means nothing relevant was found.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}
