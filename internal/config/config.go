package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/optovka/internal/extract"
	"github.com/nao1215/optovka/internal/model"
	"github.com/nao1215/optovka/internal/render"
)

// Renderer names accepted by Config.Renderer.
const (
	RendererChrome = "chrome"
	RendererHTTP   = "http"
)

// Default configuration values. They follow the settings the directory
// has been crawled with so far.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "optovka"

	// DefaultStartURL is the directory front page.
	DefaultStartURL = "https://www.optoviki.kz"

	// DefaultConcurrency of 1 keeps a single browser tab busy at a time.
	DefaultConcurrency = 1

	// DefaultDelay is the politeness delay between fetch attempts.
	DefaultDelay = 2 * time.Second

	// DefaultTimeout bounds a single fetch attempt, settle time included.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries for a transient failure.
	DefaultMaxRetries = 2

	// DefaultMaxBodySize limits pages read by the HTTP renderer.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultRedisChannel is the pub/sub channel of the change signal.
	DefaultRedisChannel = "data_updated"

	// Per-stage settle times for the browser renderer.
	DefaultRootSettle     = 15 * time.Second
	DefaultCategorySettle = 10 * time.Second
	DefaultListingSettle  = 8 * time.Second
	DefaultGoodsSettle    = 10 * time.Second
	DefaultProductSettle  = 5 * time.Second
)

// Config holds all configuration options for a crawl.
// It is populated from defaults, the config file and CLI flags, in that
// order, and passed down explicitly rather than kept in global state.
type Config struct {
	// StartURL is the directory front page the crawl starts from.
	StartURL string

	// Renderer selects how pages are loaded: RendererChrome runs a headless
	// browser, RendererHTTP issues plain GET requests.
	Renderer string

	// Concurrency is the number of crawl workers.
	Concurrency int

	// Delay is the minimum spacing between fetch attempts across workers.
	Delay time.Duration

	// Timeout bounds one fetch attempt.
	Timeout time.Duration

	// MaxRetries is how often a transient fetch failure is retried.
	MaxRetries int

	// MaxPages caps the pages fetched in one run. 0 means no cap.
	MaxPages int

	// UserAgent is sent by both renderers.
	UserAgent string

	// Headless runs Chrome without a window.
	Headless bool

	// ChromePath overrides the Chrome executable. Empty uses the one on PATH.
	ChromePath string

	// ProxyAddress is an optional SOCKS5 proxy in host:port form.
	ProxyAddress string

	// MaxBodySize limits page size for the HTTP renderer.
	MaxBodySize int64

	// Settle times per page kind. The supplier detail page shares
	// ListingSettle.
	RootSettle     time.Duration
	CategorySettle time.Duration
	ListingSettle  time.Duration
	GoodsSettle    time.Duration
	ProductSettle  time.Duration

	// Rules are the CSS selectors used to read pages.
	Rules extract.Rules

	// FollowPatterns and IgnorePatterns filter target URLs by path glob.
	FollowPatterns []string
	IgnorePatterns []string

	// DumpDir receives the HTML of pages that yielded nothing.
	// Empty disables dumps.
	DumpDir string

	// DBDir is the directory of the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/optovka on Linux).
	DBDir string

	// PostgresDSN switches the store to PostgreSQL when set.
	PostgresDSN string

	// RedisAddr enables the change signal when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	// Verbose enables debug logging.
	Verbose bool
	// LogJSON writes log records as JSON lines instead of terminal text.
	LogJSON bool

	// JSONReport and MarkdownReport select the report format.
	// They are mutually exclusive; neither means the plain text summary.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is the explicit path of the config file.
	// If empty, FindConfigFile searches the usual places.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		StartURL:       DefaultStartURL,
		Renderer:       RendererChrome,
		Concurrency:    DefaultConcurrency,
		Delay:          DefaultDelay,
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		UserAgent:      render.DefaultUserAgent,
		Headless:       true,
		MaxBodySize:    DefaultMaxBodySize,
		RootSettle:     DefaultRootSettle,
		CategorySettle: DefaultCategorySettle,
		ListingSettle:  DefaultListingSettle,
		GoodsSettle:    DefaultGoodsSettle,
		ProductSettle:  DefaultProductSettle,
		Rules:          extract.DefaultRules(),
		DBDir:          XDGDataDir(),
		RedisChannel:   DefaultRedisChannel,
	}
}

// WaitHints returns the renderer wait hint for each fetching stage.
func (c *Config) WaitHints() map[model.Stage]render.WaitHint {
	return map[model.Stage]render.WaitHint{
		model.StageRoot:            {Settle: c.RootSettle},
		model.StageCategory:        {Settle: c.CategorySettle},
		model.StageSupplierListing: {Settle: c.ListingSettle},
		model.StageSupplierDetail:  {Settle: c.ListingSettle},
		model.StageProductListing:  {Settle: c.GoodsSettle},
		model.StageProductDetail:   {Settle: c.ProductSettle},
	}
}

// XDGDataDir returns the XDG data directory for optovka.
// On Linux: ~/.local/share/optovka
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for optovka.
// On Linux: ~/.config/optovka
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for optovka.
// On Linux: ~/.cache/optovka
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultDumpDir is where --dump without a path writes pages.
func DefaultDumpDir() string {
	return filepath.Join(XDGCacheDir(), "dumps")
}

// Validate checks the configuration and returns the first problem found.
// It runs once after flags and the config file have been applied.
func (c *Config) Validate() error {
	u, err := url.Parse(c.StartURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidStartURL
	}

	if c.Renderer != RendererChrome && c.Renderer != RendererHTTP {
		return ErrUnknownRenderer
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	for _, d := range []time.Duration{c.RootSettle, c.CategorySettle, c.ListingSettle, c.GoodsSettle, c.ProductSettle} {
		if d < 0 {
			return ErrInvalidSettle
		}
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
