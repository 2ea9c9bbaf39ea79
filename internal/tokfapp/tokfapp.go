// Package tokfapp holds the filter-table discovery that cmd/tokf's
// subcommands share (search directories, scopes, the embedded stdlib), so
// no single command file has to re-assemble the table from scratch.
package tokfapp

import (
	"fmt"
	"path/filepath"

	"github.com/mpecan/tokf-sub002/internal/assets"
	"github.com/mpecan/tokf-sub002/internal/config"
	"github.com/mpecan/tokf-sub002/internal/filterdef"
)

// Scope restricts which search-path layers DiscoverFilters considers.
type Scope string

const (
	ScopeAll    Scope = ""
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
	ScopeStdlib  Scope = "stdlib"
)

// ProjectFiltersDir is the project-local filter directory, priority 0.
func ProjectFiltersDir() string {
	return filepath.Join(".tokf", "filters")
}

// GlobalFiltersDir is the per-user filter directory, priority 1.
func GlobalFiltersDir() string {
	return filepath.Join(config.UserDir(), "filters")
}

// DiscoverFilters loads the filter table for scope, honoring the same
// project > global > embedded priority order the resolver expects.
func DiscoverFilters(scope Scope) (map[string]filterdef.ResolvedFilter, []filterdef.ShadowedFilter, error) {
	var dirs []string
	var assetDir filterdef.AssetDir

	switch scope {
	case ScopeProject:
		dirs = []string{ProjectFiltersDir()}
	case ScopeGlobal:
		dirs = []string{GlobalFiltersDir()}
	case ScopeStdlib:
		assetDir = assets.Stdlib
	default:
		dirs = []string{ProjectFiltersDir(), GlobalFiltersDir()}
		assetDir = assets.Stdlib
	}

	table, shadowed, err := filterdef.DiscoverAllFilters(dirs, assetDir)
	if err != nil {
		return nil, nil, fmt.Errorf("tokfapp: discover filters: %w", err)
	}
	return table, shadowed, nil
}
