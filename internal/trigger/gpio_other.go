//go:build !linux

package trigger

import (
	"context"
	"errors"
)

// Button is unavailable off Linux.
type Button struct{ pin string }

// NewButton creates a trigger on the named pin.
func NewButton(pin string) *Button { return &Button{pin: pin} }

// Run always fails: GPIO access needs Linux.
func (b *Button) Run(ctx context.Context, t Target) error {
	return errors.New("gpio: button trigger is only supported on linux")
}
