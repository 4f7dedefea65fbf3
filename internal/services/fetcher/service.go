package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/classifier"
	"github.com/ternarybob/vigil/internal/services/retry"
)

// Service materializes the documents of a detected quarter. Downloads run
// through the retry policy; a zero-byte body counts as a failed attempt,
// and one failing link never aborts the others.
type Service struct {
	browser     interfaces.BrowserService
	client      *http.Client
	retryPolicy *retry.Policy
	downloadDir string
	pageURL     string
	logger      arbor.ILogger
}

// NewService creates a fetcher rooted at downloadDir
func NewService(browser interfaces.BrowserService, client *http.Client, retryPolicy *retry.Policy, downloadDir, pageURL string, logger arbor.ILogger) *Service {
	return &Service{
		browser:     browser,
		client:      client,
		retryPolicy: retryPolicy,
		downloadDir: downloadDir,
		pageURL:     pageURL,
		logger:      logger,
	}
}

// QuarterDir returns the storage directory for a quarter,
// e.g. downloads/2025/T2
func (s *Service) QuarterDir(quarter models.QuarterLabel) string {
	return filepath.Join(s.downloadDir, quarter.Year(), quarter.Period())
}

// Fetch resolves the quarter's document links and downloads each one,
// best-effort. Returns only the documents that were materialized.
func (s *Service) Fetch(ctx context.Context, quarter models.QuarterLabel) ([]models.SourceDocument, error) {
	links, err := s.browser.ResolveDocumentLinks(ctx, s.pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document links: %w", err)
	}

	if len(links) == 0 {
		s.logger.Warn().
			Str("quarter", quarter.String()).
			Str("url", s.pageURL).
			Msg("No document links found on disclosures page")
		return nil, nil
	}

	targetDir := s.QuarterDir(quarter)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create quarter directory %s: %w", targetDir, err)
	}

	var documents []models.SourceDocument
	for _, link := range links {
		kind, ok := classifier.ClassifyOne(classificationName(link))
		if !ok {
			s.logger.Debug().
				Str("url", link.URL).
				Msg("Skipping link with unrecognized name")
			continue
		}

		doc, err := s.downloadOne(ctx, link, kind, quarter, targetDir)
		if err != nil {
			// Best-effort: log with the originating link and continue
			s.logger.Error().
				Err(err).
				Str("url", link.URL).
				Str("kind", string(kind)).
				Str("quarter", quarter.String()).
				Msg("Document download failed")
			continue
		}

		documents = append(documents, *doc)
	}

	s.logger.Info().
		Str("quarter", quarter.String()).
		Int("links", len(links)).
		Int("downloaded", len(documents)).
		Msg("Quarter fetch completed")

	return documents, nil
}

// downloadOne fetches a single link through the retry policy and writes
// it into the quarter directory.
func (s *Service) downloadOne(ctx context.Context, link interfaces.DocumentLink, kind models.DocumentKind, quarter models.QuarterLabel, targetDir string) (*models.SourceDocument, error) {
	targetPath := filepath.Join(targetDir, fileNameFor(link))

	var body []byte
	err := s.retryPolicy.Execute(ctx, s.logger, "download "+link.URL, func() error {
		data, err := s.fetchURL(ctx, link.URL)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(targetPath, body, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", targetPath, err)
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", targetPath, err)
	}

	s.logger.Info().
		Str("file", targetPath).
		Int64("bytes", info.Size()).
		Msg("Document downloaded")

	return &models.SourceDocument{
		Path:    targetPath,
		Kind:    kind,
		Quarter: quarter,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// fetchURL performs one download attempt. Network failures, retryable
// status codes, and empty bodies are marked transient for the retry policy.
func (s *Service) fetchURL(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid download URL %s: %w", downloadURL, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, models.Transient("download", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if isRetryableStatus(resp.StatusCode) {
			return nil, models.Transient("download", err)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.Transient("download", err)
	}

	// A zero-byte download is a failure, not a silent success
	if len(body) == 0 {
		return nil, models.Transient("download", fmt.Errorf("empty response body"))
	}

	return body, nil
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// classificationName returns the string the classifier should inspect:
// the file name from the URL, falling back to the anchor title when the
// URL carries no useful name.
func classificationName(link interfaces.DocumentLink) string {
	if u, err := url.Parse(link.URL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return link.Title
}

// fileNameFor derives the on-disk name for a link
func fileNameFor(link interfaces.DocumentLink) string {
	name := classificationName(link)
	name = strings.ReplaceAll(name, " ", "_")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name
}
