package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all environment-driven settings.
type Config struct {
	DBPath            string
	VerifyConcurrency int
	HTTPTimeoutSec    int
	SyncBaseURL       string
	SyncAPIKey        string
	DefaultScope      string
	HistoryRetention  int
}

type fileConfig struct {
	DBPath            string `yaml:"db_path"`
	VerifyConcurrency int    `yaml:"verify_concurrency"`
	HTTPTimeoutSec    int    `yaml:"http_timeout_sec"`
	SyncBaseURL       string `yaml:"sync_base_url"`
	DefaultScope      string `yaml:"default_scope"`
	HistoryRetention  int    `yaml:"history_retention"`
}

// Load reads configuration from environment, an optional .env file, and an
// optional tokf.yaml override beside UserDir(), env overriding file
// overriding built-in default.
func Load() Config {
	_ = godotenv.Load()

	fileCfg := loadFileConfig(filepath.Join(UserDir(), "tokf.yaml"))

	cfg := Config{
		DBPath:            getenv("TOKF_DB_PATH", firstNonEmpty(fileCfg.DBPath, DBPath())),
		VerifyConcurrency: clampInt(getenvInt("TOKF_VERIFY_CONCURRENCY", firstPositive(fileCfg.VerifyConcurrency, 4)), 1, 64),
		HTTPTimeoutSec:    clampInt(getenvInt("TOKF_HTTP_TIMEOUT_SEC", firstPositive(fileCfg.HTTPTimeoutSec, 10)), 1, 120),
		SyncBaseURL:       getenv("TOKF_SYNC_URL", firstNonEmpty(fileCfg.SyncBaseURL, "https://sync.tokf.dev")),
		SyncAPIKey:        getenv("TOKF_API_KEY", ""),
		DefaultScope:      getenv("TOKF_DEFAULT_SCOPE", firstNonEmpty(fileCfg.DefaultScope, "project")),
		HistoryRetention:  clampInt(getenvInt("TOKF_HISTORY_RETENTION", firstPositive(fileCfg.HistoryRetention, 10)), 1, 1000),
	}

	log.Printf("config: db=%s sync_url=%s verify_concurrency=%d", cfg.DBPath, cfg.SyncBaseURL, cfg.VerifyConcurrency)
	return cfg
}

func loadFileConfig(path string) fileConfig {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("config: ignoring malformed %s: %v", path, err)
		return fileConfig{}
	}
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Now returns utc time helper for deterministic timestamps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
