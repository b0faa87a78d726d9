package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type nested struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type sample struct {
	Port    string  `yaml:"port" env:"SAMPLE_PORT"`
	Debug   bool    `yaml:"debug"`
	Ratio   float64 `yaml:"ratio"`
	Backend nested  `yaml:"backend"`
	Skipped string  `env:"-"`
}

func TestLoadConfig_RejectsNonPointer(t *testing.T) {
	if err := LoadConfig(sample{}); err == nil {
		t.Fatalf("expected error for non-pointer target")
	}
	if err := LoadConfig(nil); err == nil {
		t.Fatalf("expected error for nil target")
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	yamlBody := "port: \"9000\"\ndebug: true\nbackend:\n  url: http://from-file\n  timeout: 3s\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SAMPLE_PORT", "9100")
	t.Setenv("BACKEND_TIMEOUT", "750ms")
	t.Setenv("RATIO", "0.5")
	t.Setenv("SKIPPED", "ignored")

	var cfg sample
	if err := LoadConfig(&cfg); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9100" {
		t.Fatalf("port = %q, want env override 9100", cfg.Port)
	}
	if !cfg.Debug {
		t.Fatalf("debug from file lost")
	}
	if cfg.Backend.URL != "http://from-file" {
		t.Fatalf("backend url = %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 750*time.Millisecond {
		t.Fatalf("backend timeout = %s, want 750ms", cfg.Backend.Timeout)
	}
	if cfg.Ratio != 0.5 {
		t.Fatalf("ratio = %v", cfg.Ratio)
	}
	if cfg.Skipped != "" {
		t.Fatalf("env:\"-\" field must be skipped, got %q", cfg.Skipped)
	}
}

func TestLoadConfig_BadDuration(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("BACKEND_TIMEOUT", "soon")

	var cfg sample
	if err := LoadConfig(&cfg); err == nil {
		t.Fatalf("expected parse error for invalid duration")
	}
}
