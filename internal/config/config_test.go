package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.DBFile != DefaultDBFile {
		t.Errorf("expected default db file, got %q", cfg.DBFile)
	}
	if cfg.RepoPath != "." {
		t.Errorf("expected default repo path, got %q", cfg.RepoPath)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg := Default()
	cfg.RepoPath = "/srv/repos/demo"
	cfg.ListenAddr = "127.0.0.1:7000"
	cfg.LogLevel = "debug"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.RepoPath != cfg.RepoPath {
		t.Errorf("repo path = %q, want %q", loaded.RepoPath, cfg.RepoPath)
	}
	if loaded.ListenAddr != cfg.ListenAddr {
		t.Errorf("listen addr = %q, want %q", loaded.ListenAddr, cfg.ListenAddr)
	}
	if loaded.LogLevel != cfg.LogLevel {
		t.Errorf("log level = %q, want %q", loaded.LogLevel, cfg.LogLevel)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestLoadFillsEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"log_level":"warn"}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("empty listen addr not defaulted: %q", cfg.ListenAddr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q, want warn", cfg.LogLevel)
	}
}

func TestDBPath(t *testing.T) {
	cfg := &Config{RepoPath: "/tmp/repo", DBFile: "gitforge.db"}
	if got := cfg.DBPath(); got != filepath.Join("/tmp/repo", "gitforge.db") {
		t.Errorf("DBPath = %q", got)
	}
}
