package browser

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// downloadExtensions are the link targets treated as disclosure documents
var downloadExtensions = []string{".pdf", ".docx", ".doc", ".xlsx", ".xls", ".zip", ".html", ".htm"}

// Service renders the monitored page in a headless browser. One browser
// instance is shared across calls; access is serialized since the monitor
// loop is single-flight by construction.
type Service struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	navTimeout      time.Duration
	mu              sync.Mutex
	logger          arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.BrowserService = (*Service)(nil)

// NewService starts the headless browser and verifies it is responsive
func NewService(config *common.BrowserConfig, logger arbor.ILogger) (*Service, error) {
	navTimeout := 45 * time.Second
	if d, err := time.ParseDuration(config.NavigationTimeout); err == nil && d > 0 {
		navTimeout = d
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "Vigil-Monitor/1.0"
	}

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", config.DisableGPU),
		chromedp.Flag("no-sandbox", config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Startup test: make sure the browser actually launches
	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	logger.Info().
		Bool("headless", config.Headless).
		Str("user_agent", userAgent).
		Dur("navigation_timeout", navTimeout).
		Msg("Headless browser started")

	return &Service{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		navTimeout:      navTimeout,
		logger:          logger,
	}, nil
}

// CaptureScreenshot renders the URL and returns a full-page PNG
func (s *Service) CaptureScreenshot(ctx context.Context, pageURL string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	var buf []byte
	err := chromedp.Run(runCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "pt-BR,pt;q=0.9"}),
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.FullScreenshot(&buf, 90),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot of %s: %w", pageURL, err)
	}

	s.logger.Debug().
		Str("url", pageURL).
		Int("bytes", len(buf)).
		Msg("Page screenshot captured")

	return buf, nil
}

// ResolveDocumentLinks renders the URL and returns the downloadable
// document links found on it
func (s *Service) ResolveDocumentLinks(ctx context.Context, pageURL string) ([]interfaces.DocumentLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "pt-BR,pt;q=0.9"}),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", pageURL, err)
	}

	links, err := extractDocumentLinks(pageURL, html)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("url", pageURL).
		Int("links", len(links)).
		Msg("Document links resolved")

	return links, nil
}

// runContext derives a navigation-bounded context from the shared browser
func (s *Service) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel1 := context.WithTimeout(s.browserCtx, s.navTimeout)

	// Propagate caller cancellation onto the browser-derived context
	stop := context.AfterFunc(ctx, cancel1)
	return runCtx, func() {
		stop()
		cancel1()
	}
}

// Close shuts the browser down
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
	}
	if s.allocatorCancel != nil {
		s.allocatorCancel()
		s.allocatorCancel = nil
	}

	s.logger.Debug().Msg("Headless browser closed")
	return nil
}

// extractDocumentLinks parses rendered HTML and collects anchors pointing
// at downloadable documents, resolved against the page URL and deduplicated.
func extractDocumentLinks(pageURL, html string) ([]interfaces.DocumentLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered page: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %s: %w", pageURL, err)
	}

	seen := make(map[string]bool)
	var links []interfaces.DocumentLink

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)

		if !isDownloadTarget(resolved.Path) {
			return
		}

		absolute := resolved.String()
		if seen[absolute] {
			return
		}
		seen[absolute] = true

		title := strings.TrimSpace(sel.Text())
		if title == "" {
			title = path.Base(resolved.Path)
		}

		links = append(links, interfaces.DocumentLink{
			Title: title,
			URL:   absolute,
		})
	})

	return links, nil
}

// isDownloadTarget checks the URL path against recognized document extensions
func isDownloadTarget(urlPath string) bool {
	lower := strings.ToLower(urlPath)
	for _, ext := range downloadExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
