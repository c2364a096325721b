package core

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// ModuleID is the unique, namespaced identifier of a module
// (e.g. "provider.anthropic", "panel.server").
type ModuleID string

// Module is the minimal interface every compiled-in module implements.
type Module interface {
	ModuleInfo() ModuleInfo
}

// ModuleInfo describes a module and how to instantiate it.
type ModuleInfo struct {
	ID  ModuleID
	New func() Module
}

var (
	modulesMu sync.RWMutex
	modules   = make(map[string]ModuleInfo)
)

// RegisterModule adds a module to the global registry, reading its
// ModuleInfo from the given instance. Meant to be called from init(),
// so any problem (empty ID, nil factory, duplicate) is a programming
// error and panics.
func RegisterModule(instance Module) {
	info := instance.ModuleInfo()
	if info.ID == "" {
		panic("core: module ID must not be empty")
	}
	if info.New == nil {
		panic(fmt.Sprintf("core: module %s has a nil New function", info.ID))
	}

	modulesMu.Lock()
	defer modulesMu.Unlock()

	id := string(info.ID)
	if _, exists := modules[id]; exists {
		panic(fmt.Sprintf("core: module already registered: %s", id))
	}
	modules[id] = info
}

// GetModule looks up a registered module by ID.
func GetModule(id string) (ModuleInfo, bool) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	info, ok := modules[id]
	return info, ok
}

// GetModules returns every registered module, sorted by ID.
func GetModules() []ModuleInfo {
	modulesMu.RLock()
	defer modulesMu.RUnlock()

	result := make([]ModuleInfo, 0, len(modules))
	for _, info := range modules {
		result = append(result, info)
	}
	slices.SortFunc(result, func(a, b ModuleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

// resetRegistry clears the registry. Only for testing.
func resetRegistry() {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	modules = make(map[string]ModuleInfo)
}
