package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// pdfExtractor pulls text content out of PDF files using pdfcpu
type pdfExtractor struct {
	logger  arbor.ILogger
	tempDir string
}

func newPDFExtractor(logger arbor.ILogger) *pdfExtractor {
	tempDir := filepath.Join(os.TempDir(), "vigil-pdf")
	os.MkdirAll(tempDir, 0755)

	return &pdfExtractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// extractPages extracts text for pages startPage..endPage (1-indexed,
// inclusive, clamped). startPage <= 0 means the whole document. Returns
// the text and the document's total page count.
func (e *pdfExtractor) extractPages(ctx context.Context, path string, startPage, endPage int) (string, int, error) {
	conf := model.NewDefaultConfiguration()

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read PDF %s: %w", path, err)
	}
	pageCount := pdfCtx.PageCount

	if startPage <= 0 {
		startPage = 1
	}
	if endPage <= 0 || endPage > pageCount {
		endPage = pageCount
	}
	if startPage > endPage {
		return "", pageCount, fmt.Errorf("invalid page range: start %d > end %d", startPage, endPage)
	}

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%d_%d", os.Getpid(), hashPath(path)))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", pageCount, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", pageCount, fmt.Errorf("failed to extract PDF content from %s: %w", path, err)
	}

	// Read extracted per-page content files
	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var builder strings.Builder
	for pageNum := startPage; pageNum <= endPage; pageNum++ {
		text := pageTexts[pageNum]
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(text)
	}

	e.logger.Debug().
		Str("file", path).
		Int("page_count", pageCount).
		Int("start_page", startPage).
		Int("end_page", endPage).
		Int("chars", builder.Len()).
		Msg("PDF text extracted")

	return builder.String(), pageCount, nil
}

// hashPath gives a short collision-tolerant suffix for temp directories
func hashPath(path string) uint32 {
	var h uint32
	for i := 0; i < len(path); i++ {
		h = h*31 + uint32(path[i])
	}
	return h
}
