package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/easyaudioflip/audioflip/internal/models"
)

// FileName is the persisted enabled-set file inside the config directory.
const FileName = "config.json"

// JSONStore is an atomic JSON file store. Every Save rewrites the whole file.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore creates a new JSON store in the given config directory.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{
		path: filepath.Join(configDir, FileName),
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load reads the config from disk. Returns an empty config on ENOENT or parse errors.
func (s *JSONStore) Load() (*models.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &models.Config{EnabledDeviceIDs: []string{}}, nil
		}
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("config: corrupt JSON config, using empty config", "path", s.path, "err", err)
		return &models.Config{EnabledDeviceIDs: []string{}}, nil
	}

	normalizeConfig(&cfg)
	return &cfg, nil
}

// Save writes the config to disk immediately.
func (s *JSONStore) Save(cfg *models.Config) error {
	cp := cfg.DeepCopy()
	normalizeConfig(&cp)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(&cp)
}

func (s *JSONStore) writeAtomic(cfg *models.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

var _ Store = (*JSONStore)(nil)
