package interfaces

import (
	"context"
)

// DocumentLink is a downloadable disclosure discovered on the page.
// Title carries the visible anchor text and is the classification hint.
type DocumentLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// BrowserService renders the monitored page. It owns the headless browser
// lifecycle; both operations may block for the length of a page load and
// must honor the passed context.
type BrowserService interface {
	// CaptureScreenshot renders the URL and returns a full-page PNG.
	CaptureScreenshot(ctx context.Context, url string) ([]byte, error)

	// ResolveDocumentLinks renders the URL and returns the downloadable
	// document links found on it. May return zero links.
	ResolveDocumentLinks(ctx context.Context, url string) ([]DocumentLink, error)

	Close() error
}
