package filterdef

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// TestCaseFile is one decoded TOML file under a filter's "_test" sibling
// directory; it may declare more than one [[case]].
type TestCaseFile struct {
	Case []TestCase `toml:"case"`
}

// LoadTestCases loads every TOML fixture beside the filter at filterPath
// (e.g. "filters/git/push.toml" pairs with "filters/git/push_test/*.toml").
// Embedded filters pair with asset-provided fixtures instead; callers
// loading embedded suites should use LoadTestCasesFromAssets.
func LoadTestCases(filterPath string) ([]TestCase, error) {
	dir := testDirFor(filterPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("filterdef: read test dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var cases []TestCase
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("filterdef: read %s: %w", path, err)
		}
		var file TestCaseFile
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFilterParse, path, err)
		}
		for i := range file.Case {
			if err := resolveFixture(&file.Case[i], dir); err != nil {
				return nil, fmt.Errorf("filterdef: %s: %w", path, err)
			}
		}
		cases = append(cases, file.Case...)
	}
	return cases, nil
}

// resolveFixture reads a test case's fixture file (resolved relative to the
// suite's test directory) into Inline, so the verification harness only
// ever has to deal with inline text, same as script.file/script.source in
// resolveScriptFile. Inline wins if both are set.
func resolveFixture(tc *TestCase, dir string) error {
	if tc.Inline != "" || tc.FixturePath == "" {
		return nil
	}
	path := tc.FixturePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fixture %s: %w", path, err)
	}
	tc.Inline = string(data)
	return nil
}

// LoadTestCasesFromAssets mirrors LoadTestCases for the embedded asset
// table: relPath is the filter's relative path ("git/push.toml") and assets
// is searched for "git/push_test/*.toml".
func LoadTestCasesFromAssets(relPath string, assets AssetDir) ([]TestCase, error) {
	if assets == nil {
		return nil, nil
	}
	dir := testDirFor(relPath)
	glob := filepath.ToSlash(dir) + "/*.toml"
	files, err := assets.Find(glob)
	if err != nil {
		return nil, fmt.Errorf("filterdef: asset test scan: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })

	var cases []TestCase
	for _, f := range files {
		var file TestCaseFile
		if _, err := toml.Decode(string(f.Data), &file); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFilterParse, f.RelativePath, err)
		}
		for i := range file.Case {
			if err := resolveFixtureFromAssets(&file.Case[i], dir, assets); err != nil {
				return nil, fmt.Errorf("filterdef: %s: %w", f.RelativePath, err)
			}
		}
		cases = append(cases, file.Case...)
	}
	return cases, nil
}

// resolveFixtureFromAssets mirrors resolveFixture for embedded suites: the
// fixture path is joined onto the suite's test directory and looked up as
// an exact (wildcard-free) glob against the asset table.
func resolveFixtureFromAssets(tc *TestCase, dir string, assets AssetDir) error {
	if tc.Inline != "" || tc.FixturePath == "" {
		return nil
	}
	rel := filepath.ToSlash(filepath.Join(dir, tc.FixturePath))
	files, err := assets.Find(rel)
	if err != nil {
		return fmt.Errorf("fixture %s: %w", rel, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("fixture %s: not found", rel)
	}
	tc.Inline = string(files[0].Data)
	return nil
}

func testDirFor(filterPath string) string {
	ext := filepath.Ext(filterPath)
	stem := strings.TrimSuffix(filterPath, ext)
	return stem + "_test"
}

// embeddedSourcePrefix marks a ResolvedFilter.SourcePath as having come
// from the compiled-in asset table rather than a file on disk.
const embeddedSourcePrefix = "embedded:"

// LoadTestCasesForResolved loads a ResolvedFilter's test cases from disk or
// from the embedded asset table, whichever its SourcePath indicates.
func LoadTestCasesForResolved(rf ResolvedFilter, assets AssetDir) ([]TestCase, error) {
	if strings.HasPrefix(rf.SourcePath, embeddedSourcePrefix) {
		return LoadTestCasesFromAssets(rf.RelativePath, assets)
	}
	return LoadTestCases(rf.SourcePath)
}
