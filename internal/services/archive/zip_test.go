package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPackage(t *testing.T) {
	docs := t.TempDir()
	out := t.TempDir()

	run := models.NewQuarterRun("2T25")
	run.Results = []models.ProcessingResult{
		{
			Document: models.SourceDocument{
				Path: writeFixture(t, docs, "release_2T25.pdf", "release"),
				Kind: models.KindRelease,
			},
			Status: models.ResultSuccess,
		},
		{
			Document: models.SourceDocument{
				Path: writeFixture(t, docs, "transcricao_2T25.pdf", "transcript"),
				Kind: models.KindTranscript,
			},
			Status: models.ResultSuccess,
		},
		{
			// Deleted after download: skipped, not fatal
			Document: models.SourceDocument{
				Path: filepath.Join(docs, "missing.pdf"),
				Kind: models.KindOther,
			},
			Status: models.ResultError,
		},
	}
	run.ReportPath = writeFixture(t, docs, "relatorio_2T25.pdf", "report")

	service := NewService(out, common.GetLogger())
	path, err := service.Package(run)
	if err != nil {
		t.Fatalf("Package error: %v", err)
	}

	if filepath.Dir(path) != filepath.Join(out, "2025", "T2") {
		t.Errorf("archive path = %q, want quarter layout under output dir", path)
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("archive unreadable: %v", err)
	}
	defer reader.Close()

	names := make(map[string]bool)
	for _, entry := range reader.File {
		names[entry.Name] = true
	}
	for _, want := range []string{"release_2T25.pdf", "transcricao_2T25.pdf", "relatorio_2T25.pdf"} {
		if !names[want] {
			t.Errorf("archive missing %q", want)
		}
	}
	if names["missing.pdf"] {
		t.Error("archive contains the missing file")
	}
}

func TestPackageNothingToArchive(t *testing.T) {
	run := models.NewQuarterRun("2T25")
	run.Results = []models.ProcessingResult{
		{
			Document: models.SourceDocument{Path: filepath.Join(t.TempDir(), "gone.pdf")},
			Status:   models.ResultError,
		},
	}

	service := NewService(t.TempDir(), common.GetLogger())
	if _, err := service.Package(run); err == nil {
		t.Fatal("expected error for empty archive")
	}
}
