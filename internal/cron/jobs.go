package cron

import (
	"context"
	"log/slog"
	"time"
)

// SessionPruner is the subset of the session manager needed by cron
// jobs. Defined here to avoid a dependency on the session package.
type SessionPruner interface {
	PruneIdle(maxIdle time.Duration) int
}

// JournalPruner trims old checkpoint journal entries.
type JournalPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionCleanupJob closes panel sessions that have been idle longer
// than MaxIdle. A panel that reconnects simply opens a fresh session.
type SessionCleanupJob struct {
	Pruner       SessionPruner
	MaxIdle      time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/5 * * * *"
}

var _ Job = (*SessionCleanupJob)(nil)

// Name implements Job.
func (j *SessionCleanupJob) Name() string { return "session_cleanup" }

// Schedule implements Job.
func (j *SessionCleanupJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/5 * * * *"
}

// Run prunes sessions idle longer than MaxIdle.
func (j *SessionCleanupJob) Run(_ context.Context) error {
	if pruned := j.Pruner.PruneIdle(j.MaxIdle); pruned > 0 {
		j.Logger.Info("cron: pruned idle sessions", "count", pruned)
	}
	return nil
}

// CheckpointRetentionJob trims checkpoint journal entries older than the
// retention window. The snapshots themselves live in the host's version
// history; only the assistant's bookkeeping is swept.
type CheckpointRetentionJob struct {
	Journal      JournalPruner
	Retention    time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 3 * * *"
}

var _ Job = (*CheckpointRetentionJob)(nil)

// Name implements Job.
func (j *CheckpointRetentionJob) Name() string { return "checkpoint_retention" }

// Schedule implements Job.
func (j *CheckpointRetentionJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 3 * * *"
}

// Run removes journal entries older than the retention window.
func (j *CheckpointRetentionJob) Run(ctx context.Context) error {
	pruned, err := j.Journal.PruneBefore(ctx, time.Now().Add(-j.Retention))
	if err != nil {
		return err
	}
	if pruned > 0 {
		j.Logger.Info("cron: pruned checkpoint journal entries", "count", pruned)
	}
	return nil
}
