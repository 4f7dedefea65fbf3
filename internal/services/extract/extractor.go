package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// Extractor converts materialized disclosure files into plain text.
// PDFs go through pdfcpu; HTML pages are converted to markdown. Anything
// else is a content failure, never a retryable one.
type Extractor struct {
	pdf    *pdfExtractor
	html   *htmlExtractor
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DocumentExtractor = (*Extractor)(nil)

// NewExtractor creates a document text extractor
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{
		pdf:    newPDFExtractor(logger),
		html:   newHTMLExtractor(logger),
		logger: logger,
	}
}

// ExtractText returns the full text content of the file and its page count
// (1 for non-paginated formats).
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, int, error) {
	switch extensionOf(path) {
	case ".pdf":
		return e.pdf.extractPages(ctx, path, 0, 0)
	case ".html", ".htm":
		text, err := e.html.extract(path)
		return text, 1, err
	default:
		return "", 0, models.ContentFailure("unsupported file extension " + extensionOf(path))
	}
}

// ExtractPageRange returns the text of pages start..end (1-indexed,
// inclusive), clamped to the document. Non-paginated formats return the
// whole text.
func (e *Extractor) ExtractPageRange(ctx context.Context, path string, startPage, endPage int) (string, int, error) {
	switch extensionOf(path) {
	case ".pdf":
		return e.pdf.extractPages(ctx, path, startPage, endPage)
	case ".html", ".htm":
		text, err := e.html.extract(path)
		return text, 1, err
	default:
		return "", 0, models.ContentFailure("unsupported file extension " + extensionOf(path))
	}
}

func extensionOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
