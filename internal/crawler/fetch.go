package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/nao1215/optovka/internal/dom"
	"github.com/nao1215/optovka/internal/model"
	"github.com/nao1215/optovka/internal/render"
)

// load fetches the page of t, retrying transient failures. It returns
// false when the branch cannot continue; the reason has been recorded.
func (r *run) load(ctx context.Context, t model.Target) (*dom.Document, bool) {
	if !r.reservePage() {
		r.logger.Debug("page limit reached", "stage", t.Stage.String(), "url", t.URL)
		return nil, false
	}

	doc, err := r.fetch(ctx, t)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false
		}
		r.record(func(s *model.CrawlSummary) { s.FetchFailures++ })
		r.abandon(t, err)
		return nil, false
	}

	r.record(func(s *model.CrawlSummary) { s.PagesFetched++ })
	r.logger.Debug("page fetched", "stage", t.Stage.String(), "url", doc.URL())
	return doc, true
}

// fetch makes up to maxRetries+1 attempts. Attempts share the run's rate
// limiter and each one runs under its own timeout.
func (r *run) fetch(ctx context.Context, t model.Target) (*dom.Document, error) {
	hint := r.hints[t.Stage]

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * r.backoff
			r.logger.Debug("retrying fetch", "url", t.URL, "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		actx, cancel := context.WithTimeout(ctx, r.timeout)
		doc, err := r.renderer.Fetch(actx, t.URL, hint)
		cancel()
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if ctx.Err() != nil || !render.IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// dump writes the page HTML to the dump directory as <stage>-<slug>.html.
func (r *run) dump(t model.Target, doc *dom.Document) {
	if r.dumpDir == "" || doc == nil {
		return
	}
	slug := unsafeFileChars.ReplaceAllString(dom.Slug(doc.URL()), "_")
	if slug == "" {
		slug = "index"
	}
	name := filepath.Join(r.dumpDir, fmt.Sprintf("%s-%s.html", t.Stage, slug))

	html, err := doc.HTML()
	if err == nil {
		if err = os.MkdirAll(r.dumpDir, 0o750); err == nil {
			err = os.WriteFile(name, []byte(html), 0o600)
		}
	}
	if err != nil {
		r.logger.Warn("failed to dump page", "url", doc.URL(), "error", err)
		return
	}
	r.logger.Debug("page dumped", "url", doc.URL(), "file", name)
}
