package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jhemmel/sermux/internal/sermux"
)

// Config holds the CLI's daemon connection defaults.
type Config struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	LogLevel         string `toml:"log_level"`
	KeepAliveSeconds int    `toml:"keep_alive_seconds"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:             sermux.DefaultHost,
		Port:             sermux.DefaultPort,
		LogLevel:         "info",
		KeepAliveSeconds: 10,
	}
}

// DefaultPath returns the per-user config file location, or "" if the user
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sermux", "config.toml")
}

// Store provides thread-safe config persistence backed by a TOML file.
type Store struct {
	mu   sync.RWMutex
	cfg  Config
	path string
}

// NewStore creates a Store persisting to path. If the file is missing or
// invalid, defaults are used.
func NewStore(path string) *Store {
	s := &Store{path: path, cfg: Default()}
	s.load()
	return s
}

// NewMemoryStore creates a Store with no file persistence.
func NewMemoryStore() *Store {
	return &Store{cfg: Default()}
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update replaces the configuration and persists it.
func (s *Store) Update(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return s.save()
}

func (s *Store) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return // file missing is OK, use defaults
	}
	// Decode over the defaults so absent keys keep their default value.
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		slog.Warn("invalid config file, using defaults", "path", s.path, "err", err)
		return
	}
	s.cfg = cfg
}

func (s *Store) save() error {
	if s.path == "" {
		return nil // memory-only mode
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.cfg); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
