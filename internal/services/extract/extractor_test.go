package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

func TestExtractTextHTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resultado.html")

	html := `<html><body>
<h1>Resultados 2T25</h1>
<p>Receita líquida de <strong>R$ 1,2 bilhão</strong> no trimestre.</p>
</body></html>`
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		t.Fatal(err)
	}

	extractor := NewExtractor(common.GetLogger())
	text, pages, err := extractor.ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractText error: %v", err)
	}

	if pages != 1 {
		t.Errorf("pages = %d, want 1", pages)
	}
	if !strings.Contains(text, "Resultados 2T25") {
		t.Errorf("heading lost in conversion: %q", text)
	}
	if !strings.Contains(text, "R$ 1,2 bilhão") {
		t.Errorf("body text lost in conversion: %q", text)
	}
	if strings.Contains(text, "<p>") {
		t.Errorf("markup not stripped: %q", text)
	}
}

func TestExtractTextUnsupportedExtension(t *testing.T) {
	extractor := NewExtractor(common.GetLogger())

	_, _, err := extractor.ExtractText(context.Background(), "planilha.xlsx")
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	// Unsupported files are content failures, never retryable
	if !models.IsContentError(err) {
		t.Errorf("error = %v, want content error", err)
	}
	if models.IsTransient(err) {
		t.Error("unsupported extension marked transient")
	}
}

func TestExtractTextMissingPDF(t *testing.T) {
	extractor := NewExtractor(common.GetLogger())

	if _, _, err := extractor.ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
