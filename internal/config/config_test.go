package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jellysweep/internal/config"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
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
	if cfg.Server.URL != "" {
		t.Fatalf("expected empty server URL, got %q", cfg.Server.URL)
	}
	if cfg.Server.TimeoutSeconds != 20 {
		t.Fatalf("unexpected default timeout: %d", cfg.Server.TimeoutSeconds)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "jellysweep")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadExplicitFileTrimsAndExpands(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := strings.Join([]string{
		"[server]",
		`url = "http://media.local:8096/"`,
		`api_key = " key-123 "`,
		"timeout_seconds = 5",
		"insecure = true",
		"",
		"[paths]",
		`state_dir = "~/state"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Server.URL != "http://media.local:8096" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Server.URL)
	}
	if cfg.Server.APIKey != "key-123" {
		t.Fatalf("expected API key trimmed, got %q", cfg.Server.APIKey)
	}
	if !cfg.Server.Insecure {
		t.Fatal("expected insecure to be set")
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("expected ~ expansion, got %q", cfg.Paths.StateDir)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cases := []struct {
		name    string
		content string
	}{
		{"zero timeout", "[server]\ntimeout_seconds = 0\n"},
		{"relative url", "[server]\nurl = \"media.local:8096\"\ntimeout_seconds = 5\n"},
		{"bad scheme", "[server]\nurl = \"ftp://media.local\"\ntimeout_seconds = 5\n"},
		{"bad log format", "[logging]\nformat = \"yaml\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleWritesParseableFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Server.TimeoutSeconds != 20 {
		t.Fatalf("unexpected timeout from sample: %d", cfg.Server.TimeoutSeconds)
	}
}
