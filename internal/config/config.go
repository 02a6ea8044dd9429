package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abelbrown/viral/internal/pipeline"
)

// Config is the persistent application configuration
type Config struct {
	// Pipeline service
	APIBase          string      `json:"api_base"`
	RequestTimeout   int         `json:"request_timeout"`     // seconds, 0 = no client timeout
	MinRunIntervalMs int         `json:"min_run_interval_ms"` // submit rate limit
	RunDefaults      RunDefaults `json:"defaults"`

	// History
	HistoryLimit int `json:"history_limit"`

	// Where the database, logs and events live. Empty means ~/.viral.
	DataDir string `json:"data_dir,omitempty"`

	// Diagnostic log level: debug, info, warn, error
	LogLevel string `json:"log_level,omitempty"`

	// Trace records every UI message in the event log.
	Trace bool `json:"trace,omitempty"`
}

// RunDefaults pre-fills the run form.
type RunDefaults struct {
	NumPosts int  `json:"num_posts"`
	UseMock  bool `json:"use_mock"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		APIBase:          "http://localhost:8000",
		RequestTimeout:   300,
		MinRunIntervalMs: 1000,
		RunDefaults: RunDefaults{
			NumPosts: pipeline.DefaultPostCount,
			UseMock:  true, // No scraping credentials needed
		},
		HistoryLimit: 20,
		LogLevel:     "info",
	}
}

// DefaultDataDir returns ~/.viral, or VIRAL_DATA_DIR when set.
func DefaultDataDir() string {
	if dir := os.Getenv("VIRAL_DATA_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".viral")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.json")
}

// Load reads .env from the working directory, then the config file, then
// applies environment overrides. A missing file yields defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path, or returns defaults
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
	}

	cfg.AutoPopulateFromEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes config to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv applies VIRAL_* environment overrides
func (c *Config) AutoPopulateFromEnv() {
	if base := os.Getenv("VIRAL_API_BASE"); base != "" {
		c.APIBase = base
	}
	if v := os.Getenv("VIRAL_REQUEST_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			c.RequestTimeout = secs
		}
	}
	if dir := os.Getenv("VIRAL_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if level := os.Getenv("VIRAL_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if v := os.Getenv("VIRAL_TRACE"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Trace = on
		} else {
			c.Trace = true
		}
	}
}

// LoadEnvFile applies KEY=value pairs from a dotenv file, then re-reads
// the overrides. Variables already set in the process environment win.
func (c *Config) LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return err
	}
	c.AutoPopulateFromEnv()
	c.normalize()
	return nil
}

func (c *Config) normalize() {
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	if c.APIBase == "" {
		c.APIBase = DefaultConfig().APIBase
	}
	if c.RequestTimeout < 0 {
		c.RequestTimeout = 0
	}
	if c.MinRunIntervalMs < 0 {
		c.MinRunIntervalMs = 0
	}
	if !validPostCount(c.RunDefaults.NumPosts) {
		c.RunDefaults.NumPosts = pipeline.DefaultPostCount
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultConfig().HistoryLimit
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
}

func validPostCount(n int) bool {
	for _, c := range pipeline.PostCounts {
		if c == n {
			return true
		}
	}
	return false
}

// Timeout returns the HTTP client timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// MinRunInterval returns the minimum spacing between submitted runs.
func (c *Config) MinRunInterval() time.Duration {
	return time.Duration(c.MinRunIntervalMs) * time.Millisecond
}

// DBPath returns the run history database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "viral.db")
}

// EventsPath returns the JSONL event log path.
func (c *Config) EventsPath() string {
	return filepath.Join(c.DataDir, "events.jsonl")
}
