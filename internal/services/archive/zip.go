package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/models"
)

// Service packages a quarter's source documents and report into a
// single ZIP so the whole disclosure set can be attached to a
// notification or archived in one piece.
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

// Package writes the quarter ZIP and returns its path. Files that
// disappeared since download are skipped with a warning; an archive
// with zero entries is an error.
func (s *Service) Package(run *models.QuarterRun) (string, error) {
	dir := filepath.Join(s.outputDir, run.Quarter.Year(), run.Quarter.Period())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("documentos_%s.zip", run.Quarter))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)

	added := 0
	for _, result := range run.Results {
		if err := s.addFile(writer, result.Document.Path); err != nil {
			s.logger.Warn().
				Err(err).
				Str("file", result.Document.Path).
				Msg("Document skipped from archive")
			continue
		}
		added++
	}

	if run.ReportPath != "" {
		if err := s.addFile(writer, run.ReportPath); err != nil {
			s.logger.Warn().
				Err(err).
				Str("file", run.ReportPath).
				Msg("Report skipped from archive")
		} else {
			added++
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	if added == 0 {
		os.Remove(path)
		return "", fmt.Errorf("no files available to archive for %s", run.Quarter)
	}

	s.logger.Info().
		Str("quarter", string(run.Quarter)).
		Str("path", path).
		Int("files", added).
		Msg("Quarter archive packaged")

	return path, nil
}

func (s *Service) addFile(writer *zip.Writer, path string) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()

	entry, err := writer.Create(filepath.Base(path))
	if err != nil {
		return err
	}

	_, err = io.Copy(entry, source)
	return err
}
