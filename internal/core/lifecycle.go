package core

import (
	"context"

	"gopkg.in/yaml.v3"
)

// The lifecycle interfaces below are all optional. A module implements
// the ones it needs; the App calls them in declaration order here:
// Configure, Provision, Validate, Start, and Stop on shutdown.

// Configurable receives the module's raw YAML config section. Called
// right after instantiation, before Provision.
type Configurable interface {
	Configure(node *yaml.Node) error
}

// Provisioner sets the module up: apply defaults, open resources, and
// register or resolve shared services on the AppContext.
type Provisioner interface {
	Provision(ctx *AppContext) error
}

// Validator verifies the module ended Provision in a usable state.
// Validate should be read-only — no side effects.
type Validator interface {
	Validate() error
}

// Starter begins background work (listeners, schedulers, goroutines).
// Called only after every module has provisioned and validated.
type Starter interface {
	Start() error
}

// Stopper releases resources. Called during shutdown in reverse
// module order, bounded by the context.
type Stopper interface {
	Stop(ctx context.Context) error
}
