package sqlite

import "fmt"

const (
	defaultBusyTimeout   = 5000
	defaultDBFile        = "assistant.db"
	defaultRetentionDays = 30
)

// Config holds the SQLite datastore module configuration.
type Config struct {
	// Path is the database file path. Defaults to {DataDir}/assistant.db.
	Path string `yaml:"path"`

	// WAL enables WAL journal mode for concurrent reads. Defaults to true.
	WAL *bool `yaml:"wal"`

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults to 5000.
	BusyTimeout int `yaml:"busy_timeout"`

	// RetentionDays bounds how long checkpoint journal entries are kept.
	// Defaults to 30.
	RetentionDays int `yaml:"retention_days"`
}

func (c *Config) defaults() {
	if c.WAL == nil {
		t := true
		c.WAL = &t
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = defaultRetentionDays
	}
}

func (c *Config) walEnabled() bool {
	return c.WAL == nil || *c.WAL
}

func (c *Config) validate() error {
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlite: busy_timeout must be non-negative, got %d", c.BusyTimeout)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("sqlite: retention_days must be non-negative, got %d", c.RetentionDays)
	}
	return nil
}
