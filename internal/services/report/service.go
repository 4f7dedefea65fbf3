package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Service renders quarter reports as PDF files under the output
// directory. Report generation is best effort: a failed render leaves
// the run without a report path, nothing more.
type Service struct {
	outputDir string
	logger    arbor.ILogger
}

func NewService(outputDir string, logger arbor.ILogger) *Service {
	return &Service{
		outputDir: outputDir,
		logger:    logger,
	}
}

// Generate writes the run's PDF report and returns its path
func (s *Service) Generate(run *models.QuarterRun) (string, error) {
	markdown := BuildMarkdown(run)

	content, err := s.renderPDF(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render report for %s: %w", run.Quarter, err)
	}

	dir := filepath.Join(s.outputDir, run.Quarter.Year(), run.Quarter.Period())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("relatorio_%s_%s.pdf",
		run.Quarter, run.GeneratedAt.Format("20060102_150405")))
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Info().
		Str("quarter", string(run.Quarter)).
		Str("path", path).
		Int("bytes", len(content)).
		Msg("Quarter report generated")

	return path, nil
}

// renderPDF walks the markdown AST and draws it page by page
func (s *Service) renderPDF(markdown string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 10)

	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := newRenderer(pdf, source)
	if err := renderer.render(doc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
