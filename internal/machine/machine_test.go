package machine

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSaveCreatesFileWithContent(t *testing.T) {
	t.Setenv("TOKF_HOME", t.TempDir())

	m := Stored{MachineID: "11111111-1111-1111-1111-111111111111", Hostname: "box-1"}
	if err := Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok := Load()
	if !ok {
		t.Fatal("expected Load to find the saved registration")
	}
	if loaded != m {
		t.Fatalf("expected %+v, got %+v", m, loaded)
	}
}

func TestSaveSetsRestrictivePermissions(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("unix permission bits only")
	}
	t.Setenv("TOKF_HOME", t.TempDir())

	if err := Save(Stored{MachineID: "id", Hostname: "host"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(ConfigPath())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %o", info.Mode().Perm())
	}
}

func TestLoadReturnsFalseWhenMissing(t *testing.T) {
	t.Setenv("TOKF_HOME", t.TempDir())
	if _, ok := Load(); ok {
		t.Fatal("expected no registration for a fresh TOKF_HOME")
	}
}

func TestLoadReturnsFalseWhenMalformed(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TOKF_HOME", home)
	if err := os.WriteFile(filepath.Join(home, "machine.toml"), []byte("not valid toml {{{"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, ok := Load(); ok {
		t.Fatal("expected malformed machine.toml to be ignored")
	}
}

func TestLoadOrRegisterPersistsOnFirstCall(t *testing.T) {
	t.Setenv("TOKF_HOME", t.TempDir())

	first, err := LoadOrRegister("box-1")
	if err != nil {
		t.Fatalf("LoadOrRegister: %v", err)
	}
	second, err := LoadOrRegister("box-1")
	if err != nil {
		t.Fatalf("LoadOrRegister: %v", err)
	}
	if first.MachineID != second.MachineID {
		t.Fatalf("expected stable machine id across calls, got %q then %q", first.MachineID, second.MachineID)
	}
}
