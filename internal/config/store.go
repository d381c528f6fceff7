// Package config handles loading and saving the AudioFlip enabled-device set.
package config

import "github.com/easyaudioflip/audioflip/internal/models"

// Store is the interface for persisting the enabled-device configuration.
type Store interface {
	// Load loads the persisted config. A missing or malformed file yields an
	// empty config, not an error.
	Load() (*models.Config, error)

	// Save fully rewrites the persisted config. Implementations never patch.
	Save(cfg *models.Config) error

	// Path returns the file path used by this store.
	Path() string
}
