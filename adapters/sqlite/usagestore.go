package sqlite

import (
	"context"
	"time"

	"github.com/artpar/duetgate/domain/usage"
	"github.com/artpar/duetgate/ports"
)

// UsageStore implements ports.UsageStore using SQLite.
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new SQLite usage store.
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// RecordBatch stores multiple usage events.
func (s *UsageStore) RecordBatch(ctx context.Context, events []usage.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO usage_events (
			id, user_id, mode, request_tier, kind, library, provider,
			status_code, latency_ms, credits_used, completions,
			prompt_chars, result_chars, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		// Store timestamps in UTC for consistent querying.
		_, err := stmt.ExecContext(ctx,
			e.ID, e.UserID, string(e.Mode), e.RequestTier, e.Kind, e.Library, e.Provider,
			e.StatusCode, e.LatencyMs, e.CreditsUsed, e.Completions,
			e.PromptChars, e.ResultChars, e.Timestamp.UTC(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSummary returns aggregated usage for a period.
func (s *UsageStore) GetSummary(ctx context.Context, userID string, start, end time.Time) (usage.Summary, error) {
	startStr := start.UTC().Format("2006-01-02 15:04:05")
	endStr := end.UTC().Format("2006-01-02 15:04:05")
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as request_count,
			COALESCE(SUM(CASE WHEN mode = 'dual-ai' THEN 1 ELSE 0 END), 0) as dual_count,
			COALESCE(SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END), 0) as error_count,
			COALESCE(SUM(credits_used), 0) as credits_used,
			COALESCE(SUM(completions), 0) as completions,
			CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER) as avg_latency
		FROM usage_events
		WHERE user_id = ? AND datetime(timestamp) >= datetime(?) AND datetime(timestamp) < datetime(?)
	`, userID, startStr, endStr)

	sum := usage.Summary{UserID: userID, PeriodStart: start, PeriodEnd: end}
	err := row.Scan(
		&sum.RequestCount, &sum.DualCount, &sum.ErrorCount,
		&sum.CreditsUsed, &sum.Completions, &sum.AvgLatencyMs,
	)
	return sum, err
}

// GetRecent returns the most recent events for a user, newest first.
func (s *UsageStore) GetRecent(ctx context.Context, userID string, limit int) ([]usage.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, mode, request_tier, kind, library, provider,
		       status_code, latency_ms, credits_used, completions,
		       prompt_chars, result_chars, timestamp
		FROM usage_events
		WHERE user_id = ?
		ORDER BY datetime(timestamp) DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usage.Event
	for rows.Next() {
		var (
			e    usage.Event
			mode string
		)
		if err := rows.Scan(
			&e.ID, &e.UserID, &mode, &e.RequestTier, &e.Kind, &e.Library, &e.Provider,
			&e.StatusCode, &e.LatencyMs, &e.CreditsUsed, &e.Completions,
			&e.PromptChars, &e.ResultChars, &e.Timestamp,
		); err != nil {
			return nil, err
		}
		e.Mode = usage.Mode(mode)
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ ports.UsageStore = (*UsageStore)(nil)
