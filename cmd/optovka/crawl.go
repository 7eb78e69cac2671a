package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/optovka/internal/config"
	"github.com/nao1215/optovka/internal/crawler"
	"github.com/nao1215/optovka/internal/extract"
	"github.com/nao1215/optovka/internal/model"
	"github.com/nao1215/optovka/internal/notify"
	"github.com/nao1215/optovka/internal/render"
	"github.com/nao1215/optovka/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the directory and store what is found",
		Long: `Crawl walks the directory from its front page:

  front page -> categories -> subcategories -> supplier listings
             -> supplier profiles -> goods pages -> product pages

Every category, subcategory, supplier and product is stored as soon as it
is seen. A failing page ends only its own branch; the rest of the crawl
continues and the failure is listed in the report.

Examples:
  # Crawl with headless Chrome (default)
  optovka crawl

  # Crawl with plain HTTP requests and four workers
  optovka crawl --renderer http --concurrency 4

  # Stop after 200 pages and write a Markdown report
  optovka crawl --max-pages 200 --markdown -o report.md

  # Keep the HTML of pages that yielded nothing
  optovka crawl --dump

  # Publish a data_updated event to Redis when something new was stored
  optovka crawl --redis-addr localhost:6379`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	f := cmd.Flags()
	f.String("start-url", config.DefaultStartURL, "Directory front page")
	f.StringP("renderer", "r", config.RendererChrome, "Page renderer: chrome or http")
	f.IntP("concurrency", "n", config.DefaultConcurrency, "Number of crawl workers")
	f.Duration("delay", config.DefaultDelay, "Minimum delay between requests")
	f.DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each page load")
	f.Int("retries", config.DefaultMaxRetries, "Retries for transient fetch failures")
	f.IntP("max-pages", "p", 0, "Maximum number of pages to fetch (0 = unlimited)")
	f.String("user-agent", render.DefaultUserAgent, "User-Agent header")
	f.Bool("headless", true, "Run Chrome without a window")
	f.String("chrome-path", "", "Chrome executable (default: found on PATH)")
	f.String("proxy", "", "SOCKS5 proxy address (host:port)")
	f.StringSlice("ignore", nil, "URL path globs never fetched (repeatable)")
	f.StringSlice("follow", nil, "Only fetch URL paths matching these globs (repeatable)")
	f.String("dump", "", "Write HTML of pages that yielded nothing to this directory")
	f.Lookup("dump").NoOptDefVal = config.DefaultDumpDir()

	f.String("redis-addr", "", "Redis address for the data_updated event")
	f.String("redis-channel", config.DefaultRedisChannel, "Redis channel for the data_updated event")

	f.BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildCrawlConfig layers the crawl flags the user set over the config
// file and defaults.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	var errs []error
	str := func(name string, dst *string) {
		if f.Changed(name) {
			v, err := f.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if f.Changed(name) {
			v, err := f.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if f.Changed(name) {
			v, err := f.GetDuration(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	flag := func(name string, dst *bool) {
		if f.Changed(name) {
			v, err := f.GetBool(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if f.Changed(name) {
			v, err := f.GetStringSlice(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	str("start-url", &cfg.StartURL)
	str("renderer", &cfg.Renderer)
	num("concurrency", &cfg.Concurrency)
	dur("delay", &cfg.Delay)
	dur("timeout", &cfg.Timeout)
	num("retries", &cfg.MaxRetries)
	num("max-pages", &cfg.MaxPages)
	str("user-agent", &cfg.UserAgent)
	flag("headless", &cfg.Headless)
	str("chrome-path", &cfg.ChromePath)
	str("proxy", &cfg.ProxyAddress)
	list("ignore", &cfg.IgnorePatterns)
	list("follow", &cfg.FollowPatterns)
	str("dump", &cfg.DumpDir)
	str("redis-addr", &cfg.RedisAddr)
	str("redis-channel", &cfg.RedisChannel)
	str("output", &cfg.ReportFile)

	// Report format flags are never set in the file, so read them as is.
	cfg.JSONReport, err = f.GetBool("json")
	errs = append(errs, err)
	cfg.MarkdownReport, err = f.GetBool("markdown")
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runCrawl wires the renderer, store and notifier together and runs one crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	logger.Debug("database opened", "dialect", store.Dialect(), "path", store.Path())

	renderer, closeRenderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRenderer(); err != nil {
			logger.Warn("failed to close renderer", "error", err)
		}
	}()

	notifier := newNotifier(ctx, cfg, logger)
	if c, ok := notifier.(io.Closer); ok {
		defer c.Close()
	}

	spider := crawler.NewSpider(renderer, store, extract.New(cfg.Rules), spiderOptions(cfg, notifier, logger)...)

	logger.Info("starting crawl",
		"startURL", cfg.StartURL,
		"renderer", cfg.Renderer,
		"concurrency", cfg.Concurrency,
		"proxy", cfg.ProxyAddress,
	)

	summary, crawlErr := spider.Crawl(ctx, cfg.StartURL)
	if summary == nil {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}

	// The run is recorded even when interrupted.
	if err := store.SaveRun(context.WithoutCancel(ctx), summary); err != nil {
		logger.Error("failed to save run", "runID", summary.RunID, "error", err)
	}

	if err := outputReport(cfg, summary, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if crawlErr != nil {
		return fmt.Errorf("crawl interrupted: %w", crawlErr)
	}
	return nil
}

// spiderOptions translates the configuration into spider options.
func spiderOptions(cfg *config.Config, notifier notify.Notifier, logger *slog.Logger) []crawler.SpiderOption {
	opts := []crawler.SpiderOption{
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithDelay(cfg.Delay),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithMaxRetries(cfg.MaxRetries),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithFollowPatterns(cfg.FollowPatterns),
		crawler.WithDumpDir(cfg.DumpDir),
		crawler.WithNotifier(notifier),
		crawler.WithLogger(logger),
	}
	for stage, hint := range cfg.WaitHints() {
		opts = append(opts, crawler.WithWaitHint(stage, hint))
	}
	return opts
}

// newRenderer returns the configured renderer and its close function.
func newRenderer(cfg *config.Config) (render.Renderer, func() error, error) {
	switch cfg.Renderer {
	case config.RendererHTTP:
		opts := []render.HTTPOption{
			render.WithUserAgent(cfg.UserAgent),
			render.WithMaxBodySize(cfg.MaxBodySize),
		}
		if cfg.ProxyAddress != "" {
			opts = append(opts, render.WithSOCKS5Proxy(cfg.ProxyAddress))
		}
		h, err := render.NewHTTP(opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create HTTP renderer: %w", err)
		}
		return h, h.Close, nil
	default:
		opts := []render.ChromeOption{
			render.WithHeadless(cfg.Headless),
			render.WithChromeUserAgent(cfg.UserAgent),
			render.WithNavigationTimeout(cfg.Timeout),
		}
		if cfg.ChromePath != "" {
			opts = append(opts, render.WithExecPath(cfg.ChromePath))
		}
		if cfg.ProxyAddress != "" {
			opts = append(opts, render.WithChromeSOCKS5Proxy(cfg.ProxyAddress))
		}
		c := render.NewChrome(opts...)
		return c, c.Close, nil
	}
}

// newNotifier connects to Redis when an address is configured. The change
// signal is best-effort, so an unreachable server only disables it.
func newNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) notify.Notifier {
	if cfg.RedisAddr == "" {
		return notify.Nop{}
	}
	r, err := notify.NewRedis(ctx, notify.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Channel:  cfg.RedisChannel,
	})
	if err != nil {
		logger.Warn("change signal disabled", "redis_addr", cfg.RedisAddr, "error", err)
		return notify.Nop{}
	}
	logger.Debug("change signal enabled", "redis_addr", cfg.RedisAddr, "channel", r.Channel())
	return r
}

// outputReport writes the summary in the requested format to the report
// file or stdout.
func outputReport(cfg *config.Config, summary *model.CrawlSummary, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	_, err := w.Write(summary)
	return err
}
