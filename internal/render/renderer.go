package render

import (
	"context"
	"time"

	"github.com/nao1215/optovka/internal/dom"
)

// Renderer turns a URL into a queryable document.
type Renderer interface {
	// Fetch loads url and returns the rendered page. The returned
	// document carries the final URL after redirects.
	Fetch(ctx context.Context, url string, hint WaitHint) (*dom.Document, error)
}

// WaitHint tells a renderer when a page is ready to be read.
// Renderers without a script engine ignore it.
type WaitHint struct {
	// Selector must match before the page is read. Empty means "body".
	Selector string

	// Settle is extra time to let scripts fill the page.
	Settle time.Duration
}

// DefaultUserAgent is sent by both renderers unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
