// Package crawler walks the optoviki.kz directory and feeds what it finds
// into the store.
//
// # Architecture
//
// The Spider drives a small state machine over model.Stage. Each queued
// model.Target names a page, the stage that page is read at, and the
// branch context inherited from its parent. A worker pops a target, asks
// the render.Renderer for the page, hands the document to the matching
// extract.Extractor method, persists the candidates, and only then
// enqueues the child targets:
//
//	root -> category -> (subcategory) -> supplier listing
//	     -> supplier detail -> product listing -> product detail
//
// A category page without subcategory links is read as a supplier listing
// in place; it is not fetched twice.
//
// # Failure containment
//
// Errors stop at the branch they happen in. A fetch that still fails
// after its retries, a detail page without a name, or a supplier that
// cannot be stored ends that branch and is recorded in the
// model.CrawlSummary. Sibling branches keep going.
//
// # Politeness
//
//   - A shared rate limiter spaces fetch attempts across all workers.
//   - Transient failures are retried with linear backoff.
//   - Each attempt runs under its own timeout.
//   - Follow and ignore patterns, and a page cap, bound the crawl.
//
// # Usage
//
//	spider := crawler.NewSpider(renderer, store, extract.New(rules),
//		crawler.WithConcurrency(2),
//		crawler.WithDelay(2*time.Second),
//	)
//	summary, err := spider.Crawl(ctx, "https://www.optoviki.kz")
package crawler
