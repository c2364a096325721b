package config

import "slices"

// Resolve returns the configured module IDs in sorted order. Sorting is
// load-bearing: modules are provisioned in this order, so a module may
// resolve services at Provision time only from modules whose IDs sort
// before its own.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
