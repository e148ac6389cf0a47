package pdfextract

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"flashzen/internal/domain"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

const (
	DataURIPrefix    = "data:application/pdf;base64,"
	DefaultMaxBytes  = 10 * 1024 * 1024
	DefaultTimeout   = 30 * time.Second
	pdfSignature     = "%PDF"
	msgNoTextContent = "No text content found. PDF might contain only images, be scanned without OCR, or be corrupted."
	msgEncrypted     = "PDF is password protected or encrypted and cannot be processed"
)

// Extractor pulls plain text out of PDF documents.
type Extractor struct {
	maxBytes int64
	timeout  time.Duration
	logger   *zap.Logger
}

var _ domain.PDFExtractor = (*Extractor)(nil)

func NewExtractor(maxBytes int64, timeout time.Duration, logger *zap.Logger) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{maxBytes: maxBytes, timeout: timeout, logger: logger}
}

// ExtractDataURI decodes a "data:application/pdf;base64," URI and extracts it.
func (e *Extractor) ExtractDataURI(ctx context.Context, dataURI string) domain.PDFExtraction {
	if !strings.HasPrefix(dataURI, DataURIPrefix) {
		return failure(`Invalid PDF Data URI format. Expected "data:application/pdf;base64,<data>".`)
	}
	payload := dataURI[len(DataURIPrefix):]
	if payload == "" {
		return failure("Invalid PDF Data URI: Missing or empty base64 data.")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return failure("Failed to decode PDF data: Invalid base64 encoding.")
	}
	return e.ExtractBytes(ctx, data)
}

type extractResult struct {
	text string
	meta domain.PDFMetadata
	err  error
}

func (e *Extractor) ExtractBytes(ctx context.Context, data []byte) domain.PDFExtraction {
	if int64(len(data)) > e.maxBytes {
		return failure(fmt.Sprintf("PDF file too large (%dMB). Maximum allowed: %dMB.",
			(len(data)+512*1024)/(1024*1024), e.maxBytes/(1024*1024)))
	}
	if !bytes.HasPrefix(data, []byte(pdfSignature)) {
		return failure("Invalid file format: File does not appear to be a valid PDF.")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// The parser is not cancellable; the buffered channel lets it finish
	// in the background after a timeout.
	done := make(chan extractResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- extractResult{err: fmt.Errorf("parser panic: %v", r)}
			}
		}()
		text, meta, err := parse(data)
		done <- extractResult{text: text, meta: meta, err: err}
	}()

	var res extractResult
	select {
	case <-ctx.Done():
		e.logger.Warn("PDF extraction timed out", zap.Duration("timeout", e.timeout), zap.Int("size_bytes", len(data)))
		return failure("PDF processing timeout - file may be too complex")
	case res = <-done:
	}

	if res.err != nil {
		e.logger.Warn("PDF extraction failed", zap.Error(res.err))
		return failure(describeError(res.err))
	}
	if res.text == "" {
		meta := res.meta
		return domain.PDFExtraction{Error: msgNoTextContent, Metadata: &meta}
	}

	meta := res.meta
	meta.WordCount = len(strings.Fields(res.text))
	meta.CharCount = len([]rune(res.text))
	e.logger.Debug("PDF text extracted",
		zap.Int("pages", meta.PageCount),
		zap.Int("words", meta.WordCount))
	return domain.PDFExtraction{Success: true, ExtractedText: res.text, Metadata: &meta}
}

func parse(data []byte) (string, domain.PDFMetadata, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.PDFMetadata{}, err
	}

	meta := domain.PDFMetadata{PageCount: reader.NumPage()}
	info := reader.Trailer().Key("Info")
	meta.Title = strings.TrimSpace(info.Key("Title").Text())
	meta.Author = strings.TrimSpace(info.Key("Author").Text())

	var b strings.Builder
	for i := 1; i <= meta.PageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return normalizeText(b.String()), meta, nil
}

// normalizeText trims each line and collapses runs of blank lines.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	blank := 0
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blank++
			if blank > 1 {
				continue
			}
			b.WriteString("\n")
			continue
		}
		blank = 0
		b.WriteString(trimmed)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func describeError(err error) string {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return msgEncrypted
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "encrypt"), strings.Contains(msg, "password"):
		return msgEncrypted
	case strings.Contains(msg, "malformed"), strings.Contains(msg, "not a pdf"), strings.Contains(msg, "header"):
		return "Invalid PDF file format or corrupted file"
	default:
		return "PDF processing error: " + err.Error()
	}
}

func failure(msg string) domain.PDFExtraction {
	return domain.PDFExtraction{Error: msg}
}
