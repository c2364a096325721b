package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/witxhhaven/fig-design-assistant/internal/core"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

// Interface guards.
var (
	_ core.Module       = (*Module)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

const (
	defaultSessionMaxIdle = time.Hour
	defaultRetentionDays  = 30
)

// Config holds YAML configuration for the cron.jobs module.
type Config struct {
	SessionMaxIdle    time.Duration `yaml:"session_max_idle"`
	SessionSchedule   string        `yaml:"session_schedule"`
	RetentionDays     int           `yaml:"retention_days"`
	RetentionSchedule string        `yaml:"retention_schedule"`
}

func (c *Config) defaults() {
	if c.SessionMaxIdle <= 0 {
		c.SessionMaxIdle = defaultSessionMaxIdle
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = defaultRetentionDays
	}
}

// Module is the cron.jobs module. It wires the background jobs to the
// session manager and checkpoint journal at Start, once every service
// has been provisioned.
type Module struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	scheduler *Scheduler
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "cron.jobs",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return err
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.appCtx = ctx
	m.logger = ctx.Logger
	m.config.defaults()
	m.scheduler = NewScheduler(ctx.Logger)
	return nil
}

// Start implements core.Starter. It resolves job dependencies from the
// service registry and starts the scheduler.
func (m *Module) Start() error {
	svc, ok := m.appCtx.Service("session.manager")
	if !ok {
		return errors.New("cron: session.manager service not registered")
	}
	pruner, ok := svc.(SessionPruner)
	if !ok {
		return fmt.Errorf("cron: session.manager has unexpected type %T", svc)
	}

	if err := m.scheduler.RegisterJob(&SessionCleanupJob{
		Pruner:       pruner,
		MaxIdle:      m.config.SessionMaxIdle,
		Logger:       m.logger,
		ScheduleExpr: m.config.SessionSchedule,
	}); err != nil {
		return err
	}

	// The retention sweep is optional: without a journal there is
	// nothing to trim.
	if svc, ok := m.appCtx.Service("checkpoint.journal"); ok {
		if journal, ok := svc.(JournalPruner); ok {
			if err := m.scheduler.RegisterJob(&CheckpointRetentionJob{
				Journal:      journal,
				Retention:    time.Duration(m.config.RetentionDays) * 24 * time.Hour,
				Logger:       m.logger,
				ScheduleExpr: m.config.RetentionSchedule,
			}); err != nil {
				return err
			}
		}
	}

	return m.scheduler.Start()
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	return m.scheduler.Stop(ctx)
}
