package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/duetgate/domain/subscription"
	"github.com/artpar/duetgate/domain/tier"
	"github.com/artpar/duetgate/ports"
)

// SubscriptionStore implements ports.SubscriptionStore using SQLite.
type SubscriptionStore struct {
	db *DB
}

// NewSubscriptionStore creates a new SQLite subscription store.
func NewSubscriptionStore(db *DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

const subscriptionColumns = `
	user_id, tier, credits_remaining, completions_used, projects_created,
	has_dual_ai, v0_api_key, claude_api_key,
	subscription_start, subscription_end, last_activity, created_at, updated_at`

// Get retrieves a record by user ID.
func (s *SubscriptionStore) Get(ctx context.Context, userID string) (subscription.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = ?
	`, userID)
	return scanRecord(row)
}

// Put creates or replaces a record.
func (s *SubscriptionStore) Put(ctx context.Context, r subscription.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			tier = excluded.tier,
			credits_remaining = excluded.credits_remaining,
			completions_used = excluded.completions_used,
			projects_created = excluded.projects_created,
			has_dual_ai = excluded.has_dual_ai,
			v0_api_key = excluded.v0_api_key,
			claude_api_key = excluded.claude_api_key,
			subscription_start = excluded.subscription_start,
			subscription_end = excluded.subscription_end,
			last_activity = excluded.last_activity,
			updated_at = excluded.updated_at
	`,
		r.UserID, string(r.Tier), r.CreditsRemaining, r.CompletionsUsed, r.ProjectsCreated,
		boolToInt(r.HasDualAI), r.V0APIKey, r.ClaudeAPIKey,
		nullTime(r.SubscriptionStart), nullTime(r.SubscriptionEnd),
		nullTime(r.LastActivity), r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	)
	return err
}

// List returns all records ordered by user ID.
func (s *SubscriptionStore) List(ctx context.Context) ([]subscription.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []subscription.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a record.
func (s *SubscriptionStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE user_id = ?`, userID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (subscription.Record, error) {
	var (
		r        subscription.Record
		tierStr  string
		dual     int
		subStart sql.NullTime
		subEnd   sql.NullTime
		lastAct  sql.NullTime
	)
	err := row.Scan(
		&r.UserID, &tierStr, &r.CreditsRemaining, &r.CompletionsUsed, &r.ProjectsCreated,
		&dual, &r.V0APIKey, &r.ClaudeAPIKey,
		&subStart, &subEnd, &lastAct, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.Record{}, ports.ErrNotFound
	}
	if err != nil {
		return subscription.Record{}, err
	}

	r.Tier = tier.Tier(tierStr)
	r.HasDualAI = dual != 0
	if subStart.Valid {
		r.SubscriptionStart = subStart.Time
	}
	if subEnd.Valid {
		r.SubscriptionEnd = subEnd.Time
	}
	if lastAct.Valid {
		r.LastActivity = lastAct.Time
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

var _ ports.SubscriptionStore = (*SubscriptionStore)(nil)
