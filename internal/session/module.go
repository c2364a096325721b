package session

import (
	"errors"
	"fmt"

	"github.com/witxhhaven/fig-design-assistant/internal/core"
	"github.com/witxhhaven/fig-design-assistant/internal/provider"
	"github.com/witxhhaven/fig-design-assistant/internal/script"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&ManagerModule{})
}

// Interface guards.
var (
	_ core.Module       = (*ManagerModule)(nil)
	_ core.Configurable = (*ManagerModule)(nil)
	_ core.Provisioner  = (*ManagerModule)(nil)
	_ core.Validator    = (*ManagerModule)(nil)
)

// ManagerModule is the session.manager module. It wires the orchestrator
// to the provider and settings services and publishes it for the panel
// and cron surfaces.
type ManagerModule struct {
	config  Config
	manager *Manager
}

// Config holds the YAML-decoded configuration for the session manager.
type Config struct {
	MaxTurns  int `yaml:"max_turns"`
	MaxTokens int `yaml:"max_tokens"`
}

// ModuleInfo implements core.Module.
func (m *ManagerModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "session.manager",
		New: func() core.Module { return &ManagerModule{} },
	}
}

// Configure implements core.Configurable.
func (m *ManagerModule) Configure(node *yaml.Node) error {
	return node.Decode(&m.config)
}

// Provision implements core.Provisioner. It resolves the provider,
// settings store, and checkpoint journal services and registers the
// manager under "session.manager".
func (m *ManagerModule) Provision(ctx *core.AppContext) error {
	svc, ok := ctx.Service("provider.llm")
	if !ok {
		return errors.New("session.manager: provider.llm service not registered")
	}
	prov, ok := svc.(provider.Provider)
	if !ok {
		return fmt.Errorf("session.manager: provider.llm has unexpected type %T", svc)
	}

	svc, ok = ctx.Service("settings.store")
	if !ok {
		return errors.New("session.manager: settings.store service not registered")
	}
	settings, ok := svc.(SettingsStore)
	if !ok {
		return fmt.Errorf("session.manager: settings.store has unexpected type %T", svc)
	}

	// The checkpoint journal is optional: checkpoints still happen, just
	// without retention metadata.
	var journal script.Journal
	if svc, ok := ctx.Service("checkpoint.journal"); ok {
		journal, _ = svc.(script.Journal)
	}

	m.manager = NewManager(prov, settings, journal, ctx.Logger, ManagerConfig{
		MaxTurns:  m.config.MaxTurns,
		MaxTokens: m.config.MaxTokens,
	})
	ctx.RegisterService("session.manager", m.manager)
	return nil
}

// Validate implements core.Validator.
func (m *ManagerModule) Validate() error {
	if m.manager == nil {
		return errors.New("session.manager: manager not initialized (Provision not called)")
	}
	return nil
}

// Manager returns the provisioned orchestrator.
func (m *ManagerModule) Manager() *Manager {
	return m.manager
}
