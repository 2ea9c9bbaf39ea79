// Package machine registers and persists the local machine identity used to
// correlate usage events across a sync.
package machine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/mpecan/tokf-sub002/internal/config"
)

// Stored is the on-disk machine registration.
type Stored struct {
	MachineID string `toml:"machine_id"`
	Hostname  string `toml:"hostname"`
}

// ConfigPath returns the path to machine.toml beneath the user config dir.
func ConfigPath() string {
	return filepath.Join(config.UserDir(), "machine.toml")
}

// Load reads the stored machine registration. It returns ok=false if the
// machine has not been registered yet or the file is missing; a malformed
// file is treated the same way, with a warning printed to stderr.
func Load() (m Stored, ok bool) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return Stored{}, false
	}
	if err := toml.Unmarshal(data, &m); err != nil {
		fmt.Fprintf(os.Stderr, "tokf: warning: machine.toml is malformed and will be ignored: %v\n", err)
		return Stored{}, false
	}
	return m, true
}

// Register generates a fresh machine id for hostname and persists it.
func Register(hostname string) (Stored, error) {
	m := Stored{MachineID: uuid.NewString(), Hostname: hostname}
	if err := Save(m); err != nil {
		return Stored{}, err
	}
	return m, nil
}

// Save persists m to machine.toml with owner-only permissions.
func Save(m Stored) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("machine: create config dir: %w", err)
	}

	var buf []byte
	var err error
	if buf, err = marshalTOML(m); err != nil {
		return fmt.Errorf("machine: encode machine.toml: %w", err)
	}
	return writeRestricted(path, buf)
}

// LoadOrRegister returns the existing registration, creating one for
// hostname if none exists yet.
func LoadOrRegister(hostname string) (Stored, error) {
	if m, ok := Load(); ok {
		return m, nil
	}
	return Register(hostname)
}

func marshalTOML(m Stored) ([]byte, error) {
	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// writeRestricted writes content to path with 0600 permissions, truncating
// any existing file.
func writeRestricted(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("machine: open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("machine: write %s: %w", path, err)
	}
	return nil
}
