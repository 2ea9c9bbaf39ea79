package filterdef

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrFilterNotFound is returned when a named filter has no backing file in
// any searched directory, embedded assets included.
var ErrFilterNotFound = errors.New("filterdef: filter not found")

// ErrFilterParse wraps a TOML decode failure with the offending path.
var ErrFilterParse = errors.New("filterdef: filter parse error")

// AssetDir is the capability a caller supplies to have the loader also
// consider compile-time embedded filter definitions, at PriorityMax.
type AssetDir interface {
	// Find returns the relative path and contents of every embedded file
	// matching glob (typically "**/*.toml" flattened to a walk by the
	// implementation).
	Find(glob string) ([]AssetFile, error)
}

// AssetFile is one embedded filter definition's path and raw bytes.
type AssetFile struct {
	RelativePath string
	Data         []byte
}

// TryLoadFilter parses a single TOML file at path into a FilterConfig.
func TryLoadFilter(path string) (FilterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FilterConfig{}, fmt.Errorf("filterdef: read %s: %w", path, err)
	}
	cfg, err := parseFilter(data, path)
	if err != nil {
		return FilterConfig{}, err
	}
	if err := resolveScriptFile(&cfg, filepath.Dir(path)); err != nil {
		return FilterConfig{}, fmt.Errorf("filterdef: %s: %w", path, err)
	}
	return cfg, nil
}

// resolveScriptFile reads a filter's script.file (resolved relative to the
// filter's own directory) into script.source, so the pipeline engine only
// ever has to deal with inline source text.
func resolveScriptFile(cfg *FilterConfig, dir string) error {
	if cfg.Script == nil || cfg.Script.File == nil || cfg.Script.Source != nil {
		return nil
	}
	path := *cfg.Script.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("script.file %s: %w", path, err)
	}
	src := string(data)
	cfg.Script.Source = &src
	return nil
}

// TryLoadFromString parses TOML source held in memory rather than on disk,
// for callers building a filter from an inline string (tests, and the
// verification harness's synthetic fixtures).
func TryLoadFromString(data string) (FilterConfig, error) {
	return parseFilter([]byte(data), "(inline)")
}

func parseFilter(data []byte, path string) (FilterConfig, error) {
	var cfg FilterConfig
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return FilterConfig{}, fmt.Errorf("%w: %s: %w", ErrFilterParse, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FilterConfig{}, fmt.Errorf("%w: %s: unknown field %q", ErrFilterParse, path, undecoded[0].String())
	}
	if err := compileFilter(&cfg); err != nil {
		return FilterConfig{}, fmt.Errorf("%w: %s: %w", ErrFilterParse, path, err)
	}
	return cfg, nil
}

// DiscoverAllFilters walks searchDirs in order (index 0 is highest priority,
// i.e. lowest Priority number) plus the embedded asset table (always
// PriorityMax, the lowest-priority fallback layer), and returns every
// *.toml filter definition found, keyed by its slash-separated relative name
// ("git/push" for ".../git/push.toml"). Directories and files named with a
// "_test" suffix are skipped — those hold verification fixtures, not
// filters. When the same relative name appears in more than one layer, the
// lowest Priority value wins and the rest are recorded as shadowed.
func DiscoverAllFilters(searchDirs []string, assets AssetDir) (map[string]ResolvedFilter, []ShadowedFilter, error) {
	byName := make(map[string]ResolvedFilter)
	var shadowed []ShadowedFilter

	consider := func(name string, rf ResolvedFilter) {
		existing, ok := byName[name]
		if !ok {
			byName[name] = rf
			return
		}
		winner, loser := existing, rf
		if rf.Priority < existing.Priority {
			winner, loser = rf, existing
		}
		byName[name] = winner
		shadowed = append(shadowed, ShadowedFilter{
			Name:           name,
			WinningPath:    winner.SourcePath,
			ShadowedPath:   loser.SourcePath,
			WinningLayer:   winner.Priority,
			ShadowedLayer:  loser.Priority,
		})
	}

	for i, dir := range searchDirs {
		entries, err := discoverDir(dir, i)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, nil, err
		}
		for name, rf := range entries {
			consider(name, rf)
		}
	}

	if assets != nil {
		files, err := assets.Find("**/*.toml")
		if err != nil {
			return nil, nil, fmt.Errorf("filterdef: asset scan: %w", err)
		}
		for _, f := range files {
			inTestSuite := false
			for _, seg := range strings.Split(nameFromRelativePath(f.RelativePath), "/") {
				if isTestSuffixed(seg) {
					inTestSuite = true
					break
				}
			}
			if inTestSuite {
				continue
			}
			name := nameFromRelativePath(f.RelativePath)
			cfg, err := parseFilter(f.Data, f.RelativePath)
			if err != nil {
				return nil, nil, err
			}
			consider(name, ResolvedFilter{
				Config:       cfg,
				RelativePath: f.RelativePath,
				SourcePath:   "embedded:" + f.RelativePath,
				Priority:     PriorityMax,
			})
		}
	}

	return byName, shadowed, nil
}

// ShadowedFilter records that one layer's definition lost to another's for
// the same relative name, and which path won.
type ShadowedFilter struct {
	Name          string
	WinningPath   string
	ShadowedPath  string
	WinningLayer  int
	ShadowedLayer int
}

func discoverDir(root string, priority int) (map[string]ResolvedFilter, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filterdef: %s is not a directory", root)
	}

	out := make(map[string]ResolvedFilter)
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isTestSuffixed(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".toml" || isTestSuffixed(strings.TrimSuffix(d.Name(), ".toml")) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		cfg, err := TryLoadFilter(path)
		if err != nil {
			return err
		}
		name := nameFromRelativePath(rel)
		out[name] = ResolvedFilter{
			Config:       cfg,
			RelativePath: rel,
			SourcePath:   path,
			Priority:     priority,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isTestSuffixed(name string) bool {
	return strings.HasSuffix(name, "_test")
}

func nameFromRelativePath(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

// SortedNames returns the keys of a filter map in lexical order, used
// wherever output must be stable (verify --list, and verify's default
// suite order).
func SortedNames(m map[string]ResolvedFilter) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
