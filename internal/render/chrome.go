package render

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/nao1215/optovka/internal/dom"
)

// Chrome renders pages in a headless Chrome via chromedp. One browser is
// started on first use; every Fetch opens and closes its own tab.
type Chrome struct {
	headless     bool
	userAgent    string
	execPath     string
	proxyAddr    string
	windowWidth  int
	windowHeight int
	navTimeout   time.Duration

	once          sync.Once
	startErr      error
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// ChromeOption configures a Chrome renderer.
type ChromeOption func(*Chrome)

// WithHeadless toggles headless mode.
func WithHeadless(headless bool) ChromeOption {
	return func(c *Chrome) {
		c.headless = headless
	}
}

// WithChromeUserAgent sets the browser's User-Agent.
func WithChromeUserAgent(ua string) ChromeOption {
	return func(c *Chrome) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithExecPath points chromedp at a specific Chrome binary.
func WithExecPath(path string) ChromeOption {
	return func(c *Chrome) {
		c.execPath = path
	}
}

// WithChromeSOCKS5Proxy routes browser traffic through a SOCKS5 proxy at
// addr (host:port).
func WithChromeSOCKS5Proxy(addr string) ChromeOption {
	return func(c *Chrome) {
		c.proxyAddr = addr
	}
}

// WithWindowSize sets the browser window size.
func WithWindowSize(width, height int) ChromeOption {
	return func(c *Chrome) {
		if width > 0 && height > 0 {
			c.windowWidth, c.windowHeight = width, height
		}
	}
}

// WithNavigationTimeout bounds a Fetch whose context has no deadline.
func WithNavigationTimeout(d time.Duration) ChromeOption {
	return func(c *Chrome) {
		c.navTimeout = d
	}
}

// NewChrome creates a Chrome renderer. The browser starts lazily.
func NewChrome(opts ...ChromeOption) *Chrome {
	c := &Chrome{
		headless:     true,
		userAgent:    DefaultUserAgent,
		windowWidth:  1920,
		windowHeight: 1080,
		navTimeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// allocatorOptions returns the Chrome flags for the renderer.
func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", c.headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(c.windowWidth, c.windowHeight),
		chromedp.UserAgent(c.userAgent),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}
	if c.proxyAddr != "" {
		opts = append(opts, chromedp.ProxyServer("socks5://"+c.proxyAddr))
	}
	return opts
}

// start launches the browser once. The browser outlives any single
// request context, so it hangs off context.Background.
func (c *Chrome) start() error {
	c.once.Do(func() {
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), c.allocatorOptions()...)
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)
		if err := chromedp.Run(browserCtx); err != nil {
			browserCancel()
			allocCancel()
			c.startErr = fmt.Errorf("failed to start browser: %w", err)
			return
		}
		c.allocCancel = allocCancel
		c.browserCtx = browserCtx
		c.browserCancel = browserCancel
	})
	return c.startErr
}

// Fetch implements Renderer. It navigates a fresh tab to url, waits for
// hint.Selector, lets the page settle for hint.Settle and reads the DOM.
func (c *Chrome) Fetch(ctx context.Context, url string, hint WaitHint) (*dom.Document, error) {
	if err := c.start(); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.navTimeout)
	}
	tabCtx, cancelDeadline := context.WithDeadline(tabCtx, deadline)
	defer cancelDeadline()

	// The tab context descends from the browser, not from ctx.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var (
		html     string
		location string
	)
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady(waitSelector(hint), chromedp.ByQuery),
	}
	if hint.Settle > 0 {
		actions = append(actions, chromedp.Sleep(hint.Settle))
	}
	actions = append(actions,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &FetchError{URL: url, Err: err}
	}

	if location == "" {
		location = url
	}
	doc, err := dom.NewDocumentFromString(location, html)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return doc, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}

var _ Renderer = (*Chrome)(nil)

// waitSelector returns the selector to wait for.
func waitSelector(hint WaitHint) string {
	if s := strings.TrimSpace(hint.Selector); s != "" {
		return s
	}
	return "body"
}
