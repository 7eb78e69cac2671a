package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/optovka/internal/extract"
	"github.com/nao1215/optovka/internal/model"
	"github.com/nao1215/optovka/internal/notify"
	"github.com/nao1215/optovka/internal/render"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrInvalidStartURL is returned by Crawl for a start URL that is not an
// absolute http(s) URL.
var ErrInvalidStartURL = errors.New("invalid start URL")

// Store is the persistence the Spider writes to.
// *database.Store implements it.
type Store interface {
	ResolveCategory(ctx context.Context, c model.CategoryCandidate) (*model.Category, bool, error)
	ResolveSubcategory(ctx context.Context, c model.SubcategoryCandidate) (*model.Subcategory, bool, error)
	UpsertSupplier(ctx context.Context, c model.SupplierCandidate) (*model.Supplier, bool, error)
	UpsertProduct(ctx context.Context, c model.ProductCandidate) (bool, error)
}

// Spider crawls the directory from its front page down to product pages.
// A Spider holds settings only and may run several crawls in sequence.
type Spider struct {
	renderer  render.Renderer
	store     Store
	extractor *extract.Extractor
	notifier  notify.Notifier
	logger    *slog.Logger

	// concurrency is the number of workers processing targets.
	concurrency int

	// delay is the minimum spacing between fetch attempts across workers.
	delay time.Duration

	// timeout bounds a single fetch attempt.
	timeout time.Duration

	// maxRetries is the number of extra attempts for a transient failure.
	maxRetries int

	// backoff is multiplied by the attempt number before each retry.
	backoff time.Duration

	// maxPages caps fetches per crawl. 0 means no limit.
	maxPages int

	ignorePatterns []string
	followPatterns []string

	// dumpDir receives the HTML of pages that yielded nothing.
	// Empty disables dumps.
	dumpDir string

	hints map[model.Stage]render.WaitHint
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithConcurrency sets the number of workers. Values below 1 are ignored.
func WithConcurrency(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithDelay sets the minimum delay between fetch attempts.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithTimeout sets the timeout of a single fetch attempt.
func WithTimeout(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.timeout = d
	}
}

// WithMaxRetries sets how many times a transient fetch failure is retried.
func WithMaxRetries(n int) SpiderOption {
	return func(s *Spider) {
		s.maxRetries = n
	}
}

// WithBackoff sets the base backoff between retries. The n-th retry waits
// n times this value.
func WithBackoff(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.backoff = d
	}
}

// WithMaxPages caps the number of pages fetched per crawl. 0 disables the cap.
func WithMaxPages(n int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = n
	}
}

// WithIgnorePatterns sets URL path patterns to skip.
// Patterns use glob syntax (e.g., "/news/*", "*.pdf").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts the crawl to URL paths matching at least
// one pattern. An empty slice follows everything not ignored.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithDumpDir enables debug page dumps into dir.
func WithDumpDir(dir string) SpiderOption {
	return func(s *Spider) {
		s.dumpDir = dir
	}
}

// WithWaitHint overrides the renderer wait hint for one stage.
func WithWaitHint(stage model.Stage, hint render.WaitHint) SpiderOption {
	return func(s *Spider) {
		s.hints[stage] = hint
	}
}

// WithNotifier sets the notifier told about runs that stored new rows.
func WithNotifier(n notify.Notifier) SpiderOption {
	return func(s *Spider) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if l != nil {
			s.logger = l
		}
	}
}

// DefaultWaitHints returns the settle time used for each fetching stage.
func DefaultWaitHints() map[model.Stage]render.WaitHint {
	return map[model.Stage]render.WaitHint{
		model.StageRoot:            {Settle: 15 * time.Second},
		model.StageCategory:        {Settle: 10 * time.Second},
		model.StageSupplierListing: {Settle: 8 * time.Second},
		model.StageSupplierDetail:  {Settle: 8 * time.Second},
		model.StageProductListing:  {Settle: 10 * time.Second},
		model.StageProductDetail:   {Settle: 5 * time.Second},
	}
}

// NewSpider creates a Spider reading pages through r and writing to store.
func NewSpider(r render.Renderer, store Store, ex *extract.Extractor, opts ...SpiderOption) *Spider {
	s := &Spider{
		renderer:    r,
		store:       store,
		extractor:   ex,
		notifier:    notify.Nop{},
		logger:      slog.Default(),
		concurrency: 1,
		delay:       2 * time.Second,
		timeout:     30 * time.Second,
		maxRetries:  2,
		backoff:     time.Second,
		hints:       DefaultWaitHints(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run is the state of one crawl.
type run struct {
	*Spider

	queue   *queue
	limiter *rate.Limiter

	mu       sync.Mutex
	summary  *model.CrawlSummary
	reserved int
}

// Crawl walks the directory starting at startURL and returns the run
// summary. When ctx is cancelled, no new targets start, in-flight writes
// finish, and the partial summary is returned with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, startURL string) (*model.CrawlSummary, error) {
	start, err := url.Parse(startURL)
	if err != nil || (start.Scheme != "http" && start.Scheme != "https") || start.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStartURL, startURL)
	}

	limit := rate.Inf
	if s.delay > 0 {
		limit = rate.Every(s.delay)
	}
	r := &run{
		Spider:  s,
		queue:   newQueue(),
		limiter: rate.NewLimiter(limit, 1),
		summary: model.NewCrawlSummary(uuid.NewString(), start.String(), time.Now().UTC()),
	}

	s.logger.Info("crawl started", "run_id", r.summary.RunID, "url", r.summary.StartURL, "workers", s.concurrency)

	r.queue.push(model.Target{Stage: model.StageRoot, URL: start.String()})
	stop := context.AfterFunc(ctx, r.queue.close)
	defer stop()

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for range s.concurrency {
		g.Go(func() error {
			for {
				t, ok := r.queue.pop()
				if !ok {
					return nil
				}
				r.process(ctx, t)
				r.logger.Debug("page processed", "stage", t.Stage.String(), "url", t.URL, "queued", r.queue.len())
				r.queue.done()
			}
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	summary := r.summary
	summary.FinishedAt = time.Now().UTC()
	summary.Cancelled = ctx.Err() != nil
	r.mu.Unlock()

	s.logger.Info("crawl finished",
		"run_id", summary.RunID,
		"pages", summary.PagesFetched,
		"created", summary.Created(),
		"abandoned", len(summary.Abandoned),
		"duration", summary.Duration().Round(time.Millisecond),
	)

	if summary.Changed() {
		r.signal(ctx, summary)
	}
	if summary.Cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

// signal publishes the change event. Failures are logged only.
func (r *run) signal(ctx context.Context, summary *model.CrawlSummary) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.notifier.Notify(nctx, notify.NewDataUpdated(summary)); err != nil {
		r.logger.Warn("failed to publish change signal", "run_id", summary.RunID, "error", err)
	}
}

// enqueue queues a child target unless the URL patterns exclude it.
func (r *run) enqueue(t model.Target) {
	if !shouldFollow(t.URL, r.followPatterns, r.ignorePatterns) {
		r.logger.Debug("target skipped by pattern", "stage", t.Stage.String(), "url", t.URL)
		r.record(func(s *model.CrawlSummary) { s.Skipped++ })
		return
	}
	r.queue.push(t)
}

// reservePage claims one fetch against the page cap.
func (r *run) reservePage() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxPages > 0 && r.reserved >= r.maxPages {
		r.summary.Skipped++
		return false
	}
	r.reserved++
	return true
}

// record applies fn to the summary under the run lock.
func (r *run) record(fn func(s *model.CrawlSummary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.summary)
}

// count records the outcome of one resolve or upsert call.
func (r *run) count(kind model.EntityKind, created bool, err error) {
	r.record(func(s *model.CrawlSummary) {
		st := s.Entities[kind]
		switch {
		case err != nil:
			st.Failed++
		case created:
			st.Created++
		default:
			st.Existing++
		}
		s.Entities[kind] = st
	})
}

// abandon records a branch that ended on err.
func (r *run) abandon(t model.Target, err error) {
	r.logger.Warn("branch abandoned", "stage", t.Stage.String(), "url", t.URL, "error", err)
	r.record(func(s *model.CrawlSummary) {
		s.Abandoned = append(s.Abandoned, model.AbandonedBranch{
			Stage:  t.Stage.String(),
			URL:    t.URL,
			Reason: err.Error(),
		})
	})
}
