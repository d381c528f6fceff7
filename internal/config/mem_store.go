package config

import (
	"errors"
	"sync"

	"github.com/easyaudioflip/audioflip/internal/models"
)

// MemStore is an in-memory Store for tests that never writes to disk.
type MemStore struct {
	mu       sync.Mutex
	cfg      *models.Config
	failSave bool
	saves    int
}

// NewMemStore returns a new in-memory store with nothing saved yet.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// NewMemStoreWith returns an in-memory store pre-loaded with the given ids.
func NewMemStoreWith(ids ...string) *MemStore {
	return &MemStore{cfg: &models.Config{EnabledDeviceIDs: ids}}
}

// Load returns a copy of the stored config, or an empty config if none has been saved yet.
func (m *MemStore) Load() (*models.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		return &models.Config{EnabledDeviceIDs: []string{}}, nil
	}
	cp := m.cfg.DeepCopy()
	return &cp, nil
}

// Save stores a normalized copy of the given config in memory.
func (m *MemStore) Save(cfg *models.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failSave {
		return errors.New("memstore: save failure configured")
	}
	cp := cfg.DeepCopy()
	normalizeConfig(&cp)
	m.cfg = &cp
	return nil
}

// SetFailSave configures the store to fail all saves.
func (m *MemStore) SetFailSave(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = fail
}

// Saves returns the number of Save calls, successful or not.
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

// Ensure MemStore implements config.Store
var _ Store = (*MemStore)(nil)
