// Package model defines the data structures shared by the crawler, the
// extractor, the store and the report writers.
//
// This package contains the following main types:
//   - Category, Subcategory, Supplier, Product: persisted directory entities
//   - CategoryCandidate, SubcategoryCandidate, SupplierCandidate, ProductCandidate:
//     extracted values that have not been persisted yet
//   - Stage, Target, TraversalContext: the crawl state machine vocabulary
//   - CrawlSummary: the outcome of one crawl run
//
// Models live in their own package so that extract, database, crawler and
// report can share them without import cycles. All of them serialize to JSON.
package model
