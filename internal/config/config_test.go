// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.API.BaseURL == "" {
		t.Error("default base URL empty")
	}
	if len(cfg.Export.Formats) != 3 {
		t.Errorf("default formats = %v", cfg.Export.Formats)
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "https://example.com/api"
timeout_secs = 10

[export]
formats = ["json"]
template = "{id}"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.API.BaseURL != "https://example.com/api" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSecs != 10 {
		t.Errorf("timeout_secs = %d", cfg.API.TimeoutSecs)
	}
	// Unset fields fall back to defaults.
	if cfg.API.MaxRetries != 3 {
		t.Errorf("max_retries default not applied: %d", cfg.API.MaxRetries)
	}
	if cfg.Export.OutputDir != "." {
		t.Errorf("output_dir default not applied: %q", cfg.Export.OutputDir)
	}
}

func TestLoadFromPathJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"api": {"base_url": "https://example.com/api"}, "export": {"formats": ["html"]}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.API.BaseURL != "https://example.com/api" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if len(cfg.Export.Formats) != 1 || cfg.Export.Formats[0] != "html" {
		t.Errorf("formats = %v", cfg.Export.Formats)
	}
}

func TestLoadFromPathRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[export]\nformats = [\"pdf\"]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected validation error for unknown format")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHATGPT_EXPORTER_TOKEN", "secret-token")
	t.Setenv("CHATGPT_EXPORTER_BASE_URL", "https://override.example.com")
	t.Setenv("CHATGPT_EXPORTER_FORMATS", "Markdown, HTML")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.AccessToken != "secret-token" {
		t.Errorf("token override not applied")
	}
	if cfg.API.BaseURL != "https://override.example.com" {
		t.Errorf("base URL override not applied: %q", cfg.API.BaseURL)
	}
	if len(cfg.Export.Formats) != 2 || cfg.Export.Formats[0] != "markdown" {
		t.Errorf("formats override = %v", cfg.Export.Formats)
	}
}

func TestRateLimitClamped(t *testing.T) {
	cfg := Default()
	cfg.API.RequestsPerSecond = 500
	cfg.fillDefaults()
	if cfg.API.RequestsPerSecond != 10 {
		t.Errorf("requests_per_second not clamped: %v", cfg.API.RequestsPerSecond)
	}
}

func TestSetAndGet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("export.template", "{id}"); err != nil {
		t.Fatal(err)
	}
	got, err := cfg.Get("export.template")
	if err != nil || got != "{id}" {
		t.Errorf("Get(export.template) = %q, %v", got, err)
	}

	if err := cfg.Set("api.timeout_secs", "nope"); err == nil {
		t.Error("non-numeric timeout accepted")
	}
	if err := cfg.Set("export.formats", "json,pdf"); err == nil {
		t.Error("invalid format accepted via Set")
	}
	if err := cfg.Set("bogus.key", "x"); err == nil {
		t.Error("unknown key accepted")
	}

	// Token value is never echoed back.
	if err := cfg.Set("api.access_token", "hunter2"); err != nil {
		t.Fatal(err)
	}
	got, err = cfg.Get("api.access_token")
	if err != nil || got != "(set)" {
		t.Errorf("Get(api.access_token) = %q, must redact", got)
	}
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Export.Template = "{date}_{id}"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Export.Template != "{date}_{id}" {
		t.Errorf("round-trip template = %q", loaded.Export.Template)
	}
}
