package interfaces

import (
	"context"
)

// DocumentExtractor converts a materialized disclosure file into plain text
// for summarization.
type DocumentExtractor interface {
	// ExtractText returns the full text content of the file.
	ExtractText(ctx context.Context, path string) (string, int, error)

	// ExtractPageRange returns the text of pages start..end (1-indexed,
	// inclusive), clamped to the document's page count. The page count of
	// the whole document is returned alongside the text.
	ExtractPageRange(ctx context.Context, path string, startPage, endPage int) (string, int, error)
}
