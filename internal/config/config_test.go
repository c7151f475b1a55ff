package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribed/internal/config"
)

func TestLoadDefaultsExpandPathsAndReadEnvKeys(t *testing.T) {
	t.Setenv("SCRIBED_TRANSCRIBE_API_KEY", "tx-key")
	t.Setenv("SCRIBED_ANALYSIS_API_KEY", "an-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "scribed", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8732" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Transcription.APIKey != "tx-key" {
		t.Fatalf("expected transcription key from env, got %q", cfg.Transcription.APIKey)
	}
	if cfg.Analysis.APIKey != "an-key" {
		t.Fatalf("expected analysis key from env, got %q", cfg.Analysis.APIKey)
	}
	if cfg.Transcription.MaxSpeakers != 10 {
		t.Fatalf("unexpected max speakers: %d", cfg.Transcription.MaxSpeakers)
	}
	if cfg.Workflow.SessionPollInterval != 15 {
		t.Fatalf("unexpected poll interval: %d", cfg.Workflow.SessionPollInterval)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "sessions.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scribed.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[transcription]",
		`base_url = "https://stt.example.com/v1/"`,
		`language = "EN"`,
		"[logging]",
		`level = "DEBUG"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Transcription.BaseURL != "https://stt.example.com/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Transcription.BaseURL)
	}
	if cfg.Transcription.Language != "en" {
		t.Fatalf("expected language lowercased, got %q", cfg.Transcription.Language)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected level lowercased, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad bind", func(c *config.Config) { c.Paths.APIBind = "not-a-bind" }},
		{"bad transcription url", func(c *config.Config) { c.Transcription.BaseURL = "ftp://x" }},
		{"too many speakers", func(c *config.Config) { c.Transcription.MaxSpeakers = 99 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"zero poll interval", func(c *config.Config) { c.Workflow.SessionPollInterval = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DataDir = "/tmp/scribed-test"
			cfg.Paths.LogDir = "/tmp/scribed-test/logs"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[transcription]") {
		t.Fatal("sample config missing transcription section")
	}
}
