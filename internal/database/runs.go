package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nao1215/optovka/internal/model"
)

// RunRecord is a stored crawl run.
type RunRecord struct {
	ID         int64
	RunID      string
	StartURL   string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    *model.CrawlSummary
}

// SaveRun stores the summary of a finished crawl run.
func (s *Store) SaveRun(ctx context.Context, summary *model.CrawlSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO crawl_runs (run_id, start_url, started_at, finished_at, summary_json)
			VALUES (?, ?, ?, ?, ?)`),
			summary.RunID, summary.StartURL, summary.StartedAt.UTC(), summary.FinishedAt.UTC(), string(data))
		return err
	})
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit < 1 {
		limit = DefaultPageLimit
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, run_id, start_url, started_at, finished_at, summary_json
		FROM crawl_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r          RunRecord
			startedAt  string
			finishedAt string
			data       []byte
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.StartURL, &startedAt, &finishedAt, &data); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(startedAt)
		r.FinishedAt = parseTimestamp(finishedAt)
		r.Summary = &model.CrawlSummary{}
		if err := json.Unmarshal(data, r.Summary); err != nil {
			return nil, fmt.Errorf("failed to parse summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
