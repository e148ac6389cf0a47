package pdfextract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// buildPDF assembles a single-page PDF whose content stream is content.
func buildPDF(content, title string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Title (%s) /Author (FlashZen Tests) >>", title),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 6 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func newTestExtractor() *Extractor {
	return NewExtractor(1024*1024, 5*time.Second, zap.NewNop())
}

func TestExtractor_ExtractBytes(t *testing.T) {
	data := buildPDF("BT /F1 12 Tf 72 712 Td (Hello FlashZen) Tj ET", "Study Notes")

	res := newTestExtractor().ExtractBytes(context.Background(), data)

	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.ExtractedText, "Hello FlashZen")
	require.NotNil(t, res.Metadata)
	assert.Equal(t, 1, res.Metadata.PageCount)
	assert.Equal(t, "Study Notes", res.Metadata.Title)
	assert.Equal(t, "FlashZen Tests", res.Metadata.Author)
	assert.Equal(t, 2, res.Metadata.WordCount)
	assert.Equal(t, len("Hello FlashZen"), res.Metadata.CharCount)
}

func TestExtractor_ImageOnlyDocument(t *testing.T) {
	data := buildPDF("0 0 m 100 100 l S", "Drawing")

	res := newTestExtractor().ExtractBytes(context.Background(), data)

	assert.False(t, res.Success)
	assert.Equal(t, msgNoTextContent, res.Error)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, 1, res.Metadata.PageCount)
}

func TestExtractor_Rejections(t *testing.T) {
	valid := buildPDF("BT /F1 12 Tf (x) Tj ET", "t")
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"wrong prefix", "data:text/plain;base64,aGVsbG8=", "Invalid PDF Data URI format"},
		{"empty payload", DataURIPrefix, "Missing or empty base64 data"},
		{"bad base64", DataURIPrefix + "!!!", "Invalid base64 encoding"},
		{"not a pdf", DataURIPrefix + base64.StdEncoding.EncodeToString([]byte("hello world")), "does not appear to be a valid PDF"},
		{"too large", DataURIPrefix + base64.StdEncoding.EncodeToString(append(valid, make([]byte, 1024*1024)...)), "PDF file too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestExtractor().ExtractDataURI(context.Background(), tt.input)
			assert.False(t, res.Success)
			assert.Empty(t, res.ExtractedText)
			assert.Contains(t, res.Error, tt.wantErr)
		})
	}
}

func TestExtractor_CorruptDocument(t *testing.T) {
	res := newTestExtractor().ExtractBytes(context.Background(), []byte("%PDF-1.4\nthis is not really a pdf"))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestExtractor_DataURIRoundTrip(t *testing.T) {
	data := buildPDF("BT /F1 12 Tf 72 712 Td (Mitochondria) Tj ET", "Cells")
	uri := DataURIPrefix + base64.StdEncoding.EncodeToString(data)

	res := newTestExtractor().ExtractDataURI(context.Background(), uri)
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.ExtractedText, "Mitochondria")
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a\n\nb\nc", normalizeText("  a  \r\n\r\n\r\n b\rc \n"))
}
