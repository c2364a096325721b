package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// checkpointJournal implements script.Journal backed by the checkpoints
// table, plus the retention sweep used by the cron surface.
type checkpointJournal struct {
	db *sql.DB
}

// RecordCheckpoint implements script.Journal.
func (j *checkpointJournal) RecordCheckpoint(ctx context.Context, label string, createdAt time.Time) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO checkpoints (label, created_at) VALUES (?, ?)",
		label, createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: record checkpoint: %w", err)
	}
	return nil
}

// PruneBefore removes journal entries older than cutoff and returns how
// many were removed. The snapshots themselves live in the host's version
// history; this only trims the assistant's bookkeeping.
func (j *checkpointJournal) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx,
		"DELETE FROM checkpoints WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune checkpoints: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune checkpoints: %w", err)
	}
	return n, nil
}

// Count returns the number of journal entries.
func (j *checkpointJournal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT count(*) FROM checkpoints").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count checkpoints: %w", err)
	}
	return n, nil
}
