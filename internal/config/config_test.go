package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", cfg.Host)
	}
	if cfg.Port != 36962 {
		t.Errorf("Port = %d, want 36962", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sermux", "config.toml")

	s := NewStore(path)
	cfg := s.Get()
	cfg.Host = "daemonhost"
	cfg.Port = 4000
	if err := s.Update(cfg); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reloaded := NewStore(path).Get()
	if reloaded.Host != "daemonhost" {
		t.Errorf("Host = %q, want daemonhost", reloaded.Host)
	}
	if reloaded.Port != 4000 {
		t.Errorf("Port = %d, want 4000", reloaded.Port)
	}
	// Untouched keys keep their defaults.
	if reloaded.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", reloaded.LogLevel)
	}
}

func TestStorePartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("port = 5000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := NewStore(path).Get()
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want default localhost", cfg.Host)
	}
}

func TestStoreInvalidFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not toml {{{"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := NewStore(path).Get()
	if cfg != Default() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	cfg := s.Get()
	cfg.Host = "elsewhere"
	if err := s.Update(cfg); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if s.Get().Host != "elsewhere" {
		t.Error("memory store did not retain update")
	}
}
