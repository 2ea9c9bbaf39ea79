package config

import (
	"os"
	"path/filepath"
)

// resolveUserPath returns TOKF_HOME when set and non-empty, else fallback.
// This is the single precedence rule every *Dir function below defers to.
func resolveUserPath(fallback string) string {
	if home := os.Getenv("TOKF_HOME"); home != "" {
		return home
	}
	return fallback
}

// UserDir is the base directory for config-like user paths: filters/,
// machine.toml, tokf.yaml. When TOKF_HOME is set it replaces the
// platform-native config directory outright.
func UserDir() string {
	fallback := ""
	if d, err := os.UserConfigDir(); err == nil {
		fallback = filepath.Join(d, "tokf")
	}
	return resolveUserPath(fallback)
}

// UserDataDir is the base directory for data files, namely the usage
// tracking database. Without TOKF_HOME it is <os.UserCacheDir()>/tokf;
// identical to UserDir when TOKF_HOME is set.
func UserDataDir() string {
	fallback := ""
	if d, err := os.UserCacheDir(); err == nil {
		fallback = filepath.Join(d, "tokf")
	}
	return resolveUserPath(fallback)
}

// UserCacheDir is the base directory for cache files, namely the embedded
// filter manifest cache. Identical to UserDir when TOKF_HOME is set.
func UserCacheDir() string {
	fallback := ""
	if d, err := os.UserCacheDir(); err == nil {
		fallback = filepath.Join(d, "tokf", "cache")
	}
	return resolveUserPath(fallback)
}

// DBPath resolves the usage tracking database file location.
//
// Precedence, highest first:
//  1. TOKF_DB_PATH env var
//  2. TOKF_HOME (if set)
//  3. UserDataDir(), i.e. <os.UserCacheDir()>/tokf/usage.db
func DBPath() string {
	if p := os.Getenv("TOKF_DB_PATH"); p != "" {
		return p
	}
	return filepath.Join(UserDataDir(), "usage.db")
}
