package assets

import (
	"testing"
)

func TestStdlibFindDiscoversFilters(t *testing.T) {
	files, err := Stdlib.Find("**/*.toml")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := map[string]bool{
		"git/push.toml":    false,
		"git/status.toml":  false,
		"cargo/build.toml": false,
		"docker/build.toml": false,
	}
	for _, f := range files {
		if _, ok := want[f.RelativePath]; ok {
			want[f.RelativePath] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected embedded filter %s not found", name)
		}
	}
}

func TestStdlibFindTestFixtures(t *testing.T) {
	files, err := Stdlib.Find("git/push_test/*.toml")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("expected at least one fixture under git/push_test")
	}
}
