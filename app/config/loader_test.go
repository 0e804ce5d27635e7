package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write profile file: %v", err)
	}
}

func TestLoader_LoadAll_MissingDirectory(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "does-not-exist"))

	profiles, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("Expected no error for missing directory, got: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("Expected 0 profiles, got %d", len(profiles))
	}
}

func TestLoader_LoadAll_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "acme.yml", `
source:
  remote_dir: /inventory
settings:
  enabled: true
`)

	loader := NewLoader(dir)
	profiles, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	profile, ok := profiles["acme"]
	if !ok {
		t.Fatalf("Expected profile 'acme', got keys: %v", profiles)
	}
	if profile.Source.Extension != ".txt" {
		t.Errorf("Expected default extension '.txt', got '%s'", profile.Source.Extension)
	}
	if profile.Source.Encoding != "utf-8" {
		t.Errorf("Expected default encoding 'utf-8', got '%s'", profile.Source.Encoding)
	}
	if profile.Settings.StockThreshold != 4 {
		t.Errorf("Expected default stock threshold 4, got %d", profile.Settings.StockThreshold)
	}
	if profile.Settings.UpsertBatchSize != 100 {
		t.Errorf("Expected default upsert batch size 100, got %d", profile.Settings.UpsertBatchSize)
	}
	if !profile.Settings.Enabled {
		t.Error("Expected profile to be enabled")
	}
}

func TestLoader_LoadAll_ExplicitZeroThreshold(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "all.yml", `
source:
  remote_dir: /inventory
settings:
  enabled: true
  stock_threshold: 0
`)

	loader := NewLoader(dir)
	profiles, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if got := profiles["all"].Settings.StockThreshold; got != 0 {
		t.Errorf("Explicit zero threshold must not be defaulted, got %d", got)
	}
}

func TestLoader_LoadAll_ExplicitSettings(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "bulk.yaml", `
source:
  remote_dir: /feeds/bulk
  extension: .TXT
  encoding: latin-1
settings:
  enabled: true
  stock_threshold: 10
  upsert_batch_size: 5000
`)

	loader := NewLoader(dir)
	profiles, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	profile := profiles["bulk"]
	if profile == nil {
		t.Fatal("Expected profile 'bulk'")
	}
	if profile.Settings.StockThreshold != 10 {
		t.Errorf("Expected stock threshold 10, got %d", profile.Settings.StockThreshold)
	}
	if profile.Settings.UpsertBatchSize != 5000 {
		t.Errorf("Expected upsert batch size 5000, got %d", profile.Settings.UpsertBatchSize)
	}
	if profile.Source.Encoding != "latin-1" {
		t.Errorf("Expected encoding 'latin-1', got '%s'", profile.Source.Encoding)
	}
}

func TestLoader_LoadAll_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing remote dir",
			content: `
settings:
  enabled: true
`,
		},
		{
			name: "invalid encoding",
			content: `
source:
  remote_dir: /inventory
  encoding: ebcdic
`,
		},
		{
			name: "negative batch size",
			content: `
source:
  remote_dir: /inventory
settings:
  upsert_batch_size: -5
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeProfile(t, dir, "bad.yml", tt.content)

			loader := NewLoader(dir)
			if _, err := loader.LoadAll(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
