// Package audio provides the platform abstraction for audio output devices.
// It defines the Backend interface used by the controller and two
// implementations: Pactl (PulseAudio/PipeWire) and Mock.
package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/easyaudioflip/audioflip/internal/models"
)

// Backend is the capability the rotation core is written against.
// All operations are context-aware and safe for concurrent use.
type Backend interface {
	// Init prepares the backend. Must be called before any other method.
	Init(ctx context.Context) error

	// Enumerate lists the currently active output devices in platform order.
	Enumerate(ctx context.Context) ([]models.Device, error)

	// DefaultDevice returns the id of the current OS default output device.
	DefaultDevice(ctx context.Context) (string, error)

	// SetDefault makes id the OS default output device.
	SetDefault(ctx context.Context, id string) error

	// Name identifies the backend in logs and /api/info.
	Name() string

	// IsReal returns true for a backend that talks to the OS, false for a mock.
	IsReal() bool
}

// ErrUnavailable is returned when the audio subsystem cannot be reached.
var ErrUnavailable = errors.New("audio subsystem unavailable")

// PlatformError is returned when a platform operation fails.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string { return fmt.Sprintf("audio: %s: %v", e.Op, e.Err) }

func (e *PlatformError) Unwrap() error { return e.Err }

func platformErr(op string, err error) error { return &PlatformError{Op: op, Err: err} }
