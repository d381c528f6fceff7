//go:build linux

package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const edgePoll = 500 * time.Millisecond

// Button advances the rotation when a pulled-up pin is shorted to ground.
type Button struct {
	pin      string
	debounce *Debouncer
}

// NewButton creates a trigger on the named pin (BCM naming, e.g. "GPIO17").
func NewButton(pin string) *Button {
	return &Button{pin: pin, debounce: NewDebouncer(DefaultDebounce)}
}

// Run watches the pin until ctx is cancelled.
func (b *Button) Run(ctx context.Context, t Target) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio: host init failed: %w", err)
	}
	p := gpioreg.ByName(b.pin)
	if p == nil {
		return fmt.Errorf("gpio: failed to open %s", b.pin)
	}
	if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("gpio: failed to configure %s: %w", b.pin, err)
	}
	defer p.Halt()
	slog.Info("trigger: watching button", "pin", b.pin)

	for {
		if ctx.Err() != nil {
			return nil
		}
		// WaitForEdge times out so cancellation is noticed.
		if !p.WaitForEdge(edgePoll) {
			continue
		}
		if p.Read() != gpio.Low || !b.debounce.Accept(time.Now()) {
			continue
		}
		if _, appErr := t.Advance(ctx); appErr != nil {
			slog.Warn("trigger: button advance failed", "err", appErr)
		}
	}
}
