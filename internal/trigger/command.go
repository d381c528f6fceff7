// Package trigger drives the rotation from hardware: a line-oriented serial
// device (a macro pad or microcontroller) and a GPIO push button.
package trigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/easyaudioflip/audioflip/internal/controller"
	"github.com/easyaudioflip/audioflip/internal/models"
)

// Target is the controller surface triggers act on.
type Target interface {
	Advance(ctx context.Context) (*models.Device, *models.AppError)
	ToggleEnabled(id string) (controller.ToggleResult, *models.AppError)
	SetEnabled(id string, enabled bool) (controller.ToggleResult, *models.AppError)
	Refresh(ctx context.Context) controller.RefreshResult
}

// Command ops.
const (
	OpNext    = "next"
	OpToggle  = "toggle"
	OpEnable  = "enable"
	OpDisable = "disable"
	OpRefresh = "refresh"
)

// Command is one parsed trigger line.
type Command struct {
	Op string
	ID string
}

// ParseCommand parses "next", "refresh", or "<toggle|enable|disable> <id>".
// The id is the rest of the line, so it may contain spaces.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, fmt.Errorf("empty command")
	}
	op, rest, _ := strings.Cut(line, " ")
	op = strings.ToLower(op)
	rest = strings.TrimSpace(rest)

	switch op {
	case OpNext, OpRefresh:
		if rest != "" {
			return Command{}, fmt.Errorf("%s takes no argument", op)
		}
		return Command{Op: op}, nil
	case OpToggle, OpEnable, OpDisable:
		if rest == "" {
			return Command{}, fmt.Errorf("%s requires a device id", op)
		}
		return Command{Op: op, ID: rest}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %q", op)
	}
}

// Dispatch runs cmd against t and returns a one-line reply for the device.
func Dispatch(ctx context.Context, t Target, cmd Command) string {
	switch cmd.Op {
	case OpNext:
		dev, appErr := t.Advance(ctx)
		if appErr != nil {
			return "err " + appErr.Message
		}
		if dev == nil {
			return "ok unchanged"
		}
		return "ok " + dev.ID

	case OpToggle, OpEnable, OpDisable:
		var (
			res    controller.ToggleResult
			appErr *models.AppError
		)
		switch cmd.Op {
		case OpToggle:
			res, appErr = t.ToggleEnabled(cmd.ID)
		default:
			res, appErr = t.SetEnabled(cmd.ID, cmd.Op == OpEnable)
		}
		if appErr != nil {
			return "err " + appErr.Message
		}
		if res.PersistErr != nil {
			return "ok unsaved"
		}
		return "ok"

	case OpRefresh:
		res := t.Refresh(ctx)
		if res.PlatformErr != nil {
			return "err " + res.PlatformErr.Message
		}
		return fmt.Sprintf("ok %d", len(res.Devices))
	}
	return "err unknown command"
}
