// Package crashlog sends unrecovered panic and fatal error output to a file
// in the config directory so it survives a daemon started without a terminal.
package crashlog

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
)

const (
	// FileName is the active crash log.
	FileName = "crash.log"
	// MaxSize is the size at which the log is rotated to FileName+".old".
	MaxSize = 1 << 20
)

// Rotate moves crash.log aside once it reaches MaxSize. Only one old
// generation is kept.
func Rotate(dir string) error {
	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("crashlog: stat: %w", err)
	}
	if info.Size() < MaxSize {
		return nil
	}
	if err := os.Rename(path, path+".old"); err != nil {
		return fmt.Errorf("crashlog: rotate: %w", err)
	}
	return nil
}

// Install rotates the log and registers it as the runtime crash output.
// The returned file must stay open for the life of the process.
func Install(dir string) (*os.File, error) {
	if err := Rotate(dir); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("crashlog: open: %w", err)
	}
	if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err != nil {
		f.Close()
		return nil, fmt.Errorf("crashlog: set crash output: %w", err)
	}
	return f, nil
}
