package filterdef

import (
	"path/filepath"
	"testing"
)

func TestLoadTestCasesReadsSiblingTestDir(t *testing.T) {
	dir := t.TempDir()
	filterPath := filepath.Join(dir, "git", "push.toml")
	writeFile(t, filterPath, `command = "git push"`)
	writeFile(t, filepath.Join(dir, "git", "push_test", "basic.toml"), `
[[case]]
name = "strips noise"
inline = "Enumerating objects: 1\nDone.\n"
exit_code = 0
[[case.expect]]
contains = "Done."
`)

	cases, err := LoadTestCases(filterPath)
	if err != nil {
		t.Fatalf("LoadTestCases: %v", err)
	}
	if len(cases) != 1 || cases[0].Name != "strips noise" {
		t.Fatalf("unexpected cases: %+v", cases)
	}
}

func TestLoadTestCasesResolvesFixturePath(t *testing.T) {
	dir := t.TempDir()
	filterPath := filepath.Join(dir, "docker", "build.toml")
	writeFile(t, filterPath, `command = "docker build"`)
	writeFile(t, filepath.Join(dir, "docker", "build_test", "fixtures", "raw.txt"), "Step 1/5\nSuccessfully built abc123\n")
	writeFile(t, filepath.Join(dir, "docker", "build_test", "basic.toml"), `
[[case]]
name = "uses fixture file"
fixture = "fixtures/raw.txt"
[[case.expect]]
contains = "Successfully built"
`)

	cases, err := LoadTestCases(filterPath)
	if err != nil {
		t.Fatalf("LoadTestCases: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("unexpected cases: %+v", cases)
	}
	if cases[0].Inline != "Step 1/5\nSuccessfully built abc123\n" {
		t.Fatalf("expected fixture contents resolved into Inline, got %q", cases[0].Inline)
	}
}

func TestLoadTestCasesMissingDirIsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	filterPath := filepath.Join(dir, "git", "push.toml")
	writeFile(t, filterPath, `command = "git push"`)

	cases, err := LoadTestCases(filterPath)
	if err != nil {
		t.Fatalf("expected no error for a filter with no test fixtures, got %v", err)
	}
	if len(cases) != 0 {
		t.Fatalf("expected no cases, got %+v", cases)
	}
}

func TestLoadTestCasesFromAssets(t *testing.T) {
	assets := fakeAssets{files: []AssetFile{
		{RelativePath: "git/push_test/basic.toml", Data: []byte(`
[[case]]
name = "from assets"
inline = "hello\n"
[[case.expect]]
equals = "hello\n"
`)},
	}}

	cases, err := LoadTestCasesFromAssets("git/push.toml", assets)
	if err != nil {
		t.Fatalf("LoadTestCasesFromAssets: %v", err)
	}
	if len(cases) != 1 || cases[0].Name != "from assets" {
		t.Fatalf("unexpected cases: %+v", cases)
	}
}

func TestLoadTestCasesForResolvedDispatchesByProvenance(t *testing.T) {
	dir := t.TempDir()
	filterPath := filepath.Join(dir, "git", "push.toml")
	writeFile(t, filterPath, `command = "git push"`)
	writeFile(t, filepath.Join(dir, "git", "push_test", "basic.toml"), `
[[case]]
name = "on disk"
inline = "x\n"
[[case.expect]]
contains = "x"
`)

	onDisk := ResolvedFilter{RelativePath: "git/push.toml", SourcePath: filterPath}
	cases, err := LoadTestCasesForResolved(onDisk, nil)
	if err != nil {
		t.Fatalf("LoadTestCasesForResolved (disk): %v", err)
	}
	if len(cases) != 1 || cases[0].Name != "on disk" {
		t.Fatalf("unexpected on-disk cases: %+v", cases)
	}

	assets := fakeAssets{files: []AssetFile{
		{RelativePath: "git/push_test/basic.toml", Data: []byte(`
[[case]]
name = "embedded"
inline = "y\n"
[[case.expect]]
contains = "y"
`)},
	}}
	embedded := ResolvedFilter{RelativePath: "git/push.toml", SourcePath: "embedded:git/push.toml"}
	cases, err = LoadTestCasesForResolved(embedded, assets)
	if err != nil {
		t.Fatalf("LoadTestCasesForResolved (embedded): %v", err)
	}
	if len(cases) != 1 || cases[0].Name != "embedded" {
		t.Fatalf("unexpected embedded cases: %+v", cases)
	}
}
