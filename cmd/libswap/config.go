package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPath      = ".libswap/config.yaml"
	envPath         = ".env"
	defaultStoreDir = ".libswap/store"
)

// Environment variables that override the project config.
const (
	envStoreDir = "LIBSWAP_STORE_DIR"
	envDocument = "LIBSWAP_DOCUMENT"
	envToken    = "LIBSWAP_TOKEN"
	envLogLevel = "LIBSWAP_LOG_LEVEL"
)

// ProjectConfig holds the contents of .libswap/config.yaml.
type ProjectConfig struct {
	StoreDir  string `yaml:"store_dir"`
	Document  string `yaml:"document"`
	Manifests string `yaml:"manifests_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	MCPLog    string `yaml:"mcp_log"`
	Workers   int    `yaml:"workers"`
	// DebounceMs delays registry reloads after the store changes on disk.
	DebounceMs int `yaml:"debounce_ms"`
}

// loadProjectConfig reads the config file at path. A missing file is an
// empty config.
func loadProjectConfig(path string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnv loads path into the process environment if it exists. Variables
// already set are kept.
func loadEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// settings are the resolved options of one invocation.
type settings struct {
	StoreDir   string
	Document   string
	Manifests  string
	Token      string
	LogLevel   string
	LogFormat  string
	MCPLog     string
	Workers    int
	DebounceMs int
}

// flagValues are the persistent flags as given; empty means unset.
type flagValues struct {
	storeDir  string
	document  string
	logLevel  string
	logFormat string
}

// resolveSettings applies the fallback chain for every option:
//  1. explicit flag
//  2. LIBSWAP_* environment variable
//  3. .libswap/config.yaml
//  4. built-in default
func resolveSettings(f flagValues, cfg *ProjectConfig, getenv func(string) string) settings {
	if cfg == nil {
		cfg = &ProjectConfig{}
	}
	s := settings{
		StoreDir:   first(f.storeDir, getenv(envStoreDir), cfg.StoreDir, defaultStoreDir),
		Document:   first(f.document, getenv(envDocument), cfg.Document),
		Manifests:  cfg.Manifests,
		Token:      getenv(envToken),
		LogLevel:   first(f.logLevel, getenv(envLogLevel), cfg.LogLevel, "info"),
		LogFormat:  first(f.logFormat, cfg.LogFormat, "text"),
		MCPLog:     cfg.MCPLog,
		Workers:    cfg.Workers,
		DebounceMs: cfg.DebounceMs,
	}
	if s.DebounceMs <= 0 {
		s.DebounceMs = 300
	}
	return s
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
