package script

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/witxhhaven/fig-design-assistant/pkg/document"
)

// Journal records checkpoint metadata for later retention sweeps.
// Implementations must be safe for concurrent use.
type Journal interface {
	RecordCheckpoint(ctx context.Context, label string, createdAt time.Time) error
}

// Checkpointer snapshots document state before destructive proposals run.
type Checkpointer struct {
	host    document.Host
	journal Journal
	logger  *slog.Logger
	now     func() time.Time
}

// NewCheckpointer creates a Checkpointer. journal may be nil (snapshots
// are then taken without journaling).
func NewCheckpointer(host document.Host, journal Journal, logger *slog.Logger) *Checkpointer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkpointer{host: host, journal: journal, logger: logger, now: time.Now}
}

// MaybeCheckpoint snapshots document state when the proposal carries
// warnings. Checkpoint failure is non-fatal: the proposal was already
// human-approved and the host's undo history remains the primary
// recovery path, so errors are logged and swallowed.
func (c *Checkpointer) MaybeCheckpoint(ctx context.Context, hasWarnings bool) {
	if !hasWarnings {
		return
	}

	label := fmt.Sprintf("Before assistant edit %s", c.now().UTC().Format(time.RFC3339))
	if err := c.host.Snapshot(ctx, label); err != nil {
		c.logger.Warn("checkpoint failed, continuing", "label", label, "error", err)
		return
	}

	if c.journal != nil {
		if err := c.journal.RecordCheckpoint(ctx, label, c.now().UTC()); err != nil {
			c.logger.Warn("checkpoint journal write failed", "error", err)
		}
	}

	c.logger.Info("checkpoint created", "label", label)
}
