// Package sqlite implements the datastore.sqlite module: persisted
// operator settings and the checkpoint journal, backed by a single
// modernc.org/sqlite database (pure Go, no CGO) in WAL mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/witxhhaven/fig-design-assistant/internal/core"
	"github.com/witxhhaven/fig-design-assistant/internal/provider"
	"github.com/witxhhaven/fig-design-assistant/internal/script"
	"github.com/witxhhaven/fig-design-assistant/internal/session"
	"gopkg.in/yaml.v3"

	_ "modernc.org/sqlite" // SQLite driver registration
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ session.SettingsStore     = (*settingsStore)(nil)
	_ provider.CredentialSource = (*settingsStore)(nil)
	_ script.Journal            = (*checkpointJournal)(nil)
	_ core.Configurable         = (*Module)(nil)
	_ core.Provisioner          = (*Module)(nil)
	_ core.Validator            = (*Module)(nil)
	_ core.Stopper              = (*Module)(nil)
)

// Module is the datastore.sqlite module. It provides the settings store
// and checkpoint journal from one database file.
type Module struct {
	config   Config
	db       *sql.DB
	logger   *slog.Logger
	settings *settingsStore
	journal  *checkpointJournal
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "datastore.sqlite",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("sqlite: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}

	if dir := filepath.Dir(m.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", m.config.Path)
	if err != nil {
		return fmt.Errorf("sqlite: open %s: %w", m.config.Path, err)
	}

	// SQLite handles one writer at a time; limit pool to 1 connection
	// so PRAGMAs apply consistently.
	db.SetMaxOpenConns(1)

	if m.config.walEnabled() {
		if _, err := db.ExecContext(context.TODO(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}

	if _, err := db.ExecContext(context.TODO(), fmt.Sprintf("PRAGMA busy_timeout=%d", m.config.BusyTimeout)); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return err
	}

	m.db = db
	m.settings = &settingsStore{db: db}
	m.journal = &checkpointJournal{db: db}

	ctx.RegisterService("settings.store", m.settings)
	ctx.RegisterService("provider.credentials", m.settings)
	ctx.RegisterService("checkpoint.journal", m.journal)

	m.logger.Info("sqlite datastore provisioned",
		"path", m.config.Path,
		"wal", m.config.walEnabled(),
	)

	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return err
	}
	if err := m.db.PingContext(context.TODO()); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("sqlite datastore stopping")
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Settings returns the settings store.
func (m *Module) Settings() session.SettingsStore {
	return m.settings
}

// Journal returns the checkpoint journal.
func (m *Module) Journal() script.Journal {
	return m.journal
}

// Retention returns how long checkpoint journal entries are kept.
func (m *Module) Retention() time.Duration {
	return time.Duration(m.config.RetentionDays) * 24 * time.Hour
}
