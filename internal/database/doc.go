// Package database is the entity resolver and store of the crawler.
//
// Store persists categories, subcategories, suppliers and products, and
// the history of crawl runs. It speaks two SQL dialects over database/sql:
//   - SQLite through modernc.org/sqlite, the default, one file under the
//     XDG data directory
//   - PostgreSQL through the pgx stdlib driver
//
// Schemas are goose migrations embedded per dialect and applied on open.
//
// Every resolve/upsert call is idempotent on the entity's natural key:
// categories and subcategories by slug, suppliers by name, products by
// (supplier, name). A call never fails because a row already exists; it
// returns the stored row instead. Each write runs in its own transaction
// and is rolled back on failure.
package database
