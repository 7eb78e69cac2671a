package dom

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed page and the URL it was served from.
type Document struct {
	url *url.URL
	doc *goquery.Document
}

// NewDocument parses HTML from r. pageURL must be the final URL of the
// page after redirects.
func NewDocument(pageURL string, r io.Reader) (*Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Url = u
	return &Document{url: u, doc: doc}, nil
}

// NewDocumentFromString is a convenience wrapper for NewDocument.
func NewDocumentFromString(pageURL, html string) (*Document, error) {
	return NewDocument(pageURL, strings.NewReader(html))
}

// URL returns the final URL of the page.
func (d *Document) URL() string {
	return d.url.String()
}

// Host returns the host of the page URL.
func (d *Document) Host() string {
	return d.url.Host
}

// Find returns the elements matching the CSS selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Selection returns the whole document as a selection.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// HTML returns the serialized document, used for debug dumps.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Resolve turns href into an absolute URL relative to the page.
// It returns "" for empty hrefs, fragments and non-navigable schemes.
func (d *Document) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := d.url.ResolveReference(ref)
	abs.Fragment = ""
	return abs.String()
}

// SameHost reports whether rawURL points at the page's host.
func (d *Document) SameHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, d.url.Host)
}

// Slug returns the last non-empty path segment of rawURL.
// "https://www.optoviki.kz/optom-odezhda/" yields "optom-odezhda".
func Slug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
