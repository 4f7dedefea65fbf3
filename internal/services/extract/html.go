package extract

import (
	"fmt"
	"os"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"
)

// htmlExtractor converts HTML disclosures to markdown text so they can be
// summarized like any other document
type htmlExtractor struct {
	converter *md.Converter
	logger    arbor.ILogger
}

func newHTMLExtractor(logger arbor.ILogger) *htmlExtractor {
	converter := md.NewConverter("", true, nil)

	return &htmlExtractor{
		converter: converter,
		logger:    logger,
	}
}

func (e *htmlExtractor) extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read HTML file %s: %w", path, err)
	}

	markdown, err := e.converter.ConvertString(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	e.logger.Debug().
		Str("file", path).
		Int("chars", len(markdown)).
		Msg("HTML converted to markdown")

	return markdown, nil
}
