package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"VIRAL_API_BASE", "VIRAL_REQUEST_TIMEOUT", "VIRAL_DATA_DIR", "VIRAL_LOG_LEVEL", "VIRAL_TRACE"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("VIRAL_DATA_DIR", dir)

	cfg, err := LoadFrom(filepath.Join(dir, "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.APIBase != "http://localhost:8000" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.Timeout() != 300*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	if cfg.MinRunInterval() != time.Second {
		t.Errorf("MinRunInterval = %v", cfg.MinRunInterval())
	}
	if cfg.RunDefaults.NumPosts != 5 || !cfg.RunDefaults.UseMock {
		t.Errorf("defaults = %+v", cfg.RunDefaults)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("HistoryLimit = %d", cfg.HistoryLimit)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.DBPath() != filepath.Join(dir, "viral.db") {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg := DefaultConfig()
	cfg.APIBase = "https://pipeline.example.com/"
	cfg.RequestTimeout = 0
	cfg.RunDefaults = RunDefaults{NumPosts: 8, UseMock: false}
	cfg.DataDir = "/tmp/viral-test"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.APIBase != "https://pipeline.example.com" {
		t.Errorf("APIBase = %q, trailing slash should be trimmed", got.APIBase)
	}
	if got.Timeout() != 0 {
		t.Errorf("Timeout = %v, want 0", got.Timeout())
	}
	if got.RunDefaults.NumPosts != 8 || got.RunDefaults.UseMock {
		t.Errorf("defaults = %+v", got.RunDefaults)
	}
	if got.DataDir != "/tmp/viral-test" {
		t.Errorf("DataDir = %q", got.DataDir)
	}
}

func TestLoadNormalizesInvalidValues(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"api_base":"  ","request_timeout":-5,"defaults":{"num_posts":7},"history_limit":0}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.APIBase != "http://localhost:8000" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("RequestTimeout = %d", cfg.RequestTimeout)
	}
	if cfg.RunDefaults.NumPosts != 5 {
		t.Errorf("NumPosts = %d, want fallback 5", cfg.RunDefaults.NumPosts)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("HistoryLimit = %d", cfg.HistoryLimit)
	}
}

func TestLoadCorruptFileFallsBack(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.APIBase != "http://localhost:8000" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIRAL_API_BASE", "http://10.0.0.2:9000")
	t.Setenv("VIRAL_REQUEST_TIMEOUT", "30")
	t.Setenv("VIRAL_DATA_DIR", "/var/lib/viral")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.APIBase != "http://10.0.0.2:9000" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	if cfg.DataDir != "/var/lib/viral" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
}

func TestTraceFromEnv(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"", false},
		{"1", true},
		{"false", false},
		{"yes", true},
	}
	for _, tt := range tests {
		clearEnv(t)
		t.Setenv("VIRAL_TRACE", tt.val)
		cfg := DefaultConfig()
		cfg.AutoPopulateFromEnv()
		if cfg.Trace != tt.want {
			t.Errorf("VIRAL_TRACE=%q: Trace = %v, want %v", tt.val, cfg.Trace, tt.want)
		}
	}
}

func TestEnvOverrideIgnoresBadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIRAL_REQUEST_TIMEOUT", "soon")

	cfg := DefaultConfig()
	cfg.AutoPopulateFromEnv()
	if cfg.RequestTimeout != 300 {
		t.Errorf("RequestTimeout = %d, want unchanged 300", cfg.RequestTimeout)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("VIRAL_API_BASE")
	t.Cleanup(func() { os.Unsetenv("VIRAL_API_BASE") })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("VIRAL_API_BASE=http://from-dotenv:8000/\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if cfg.APIBase != "http://from-dotenv:8000" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
}
