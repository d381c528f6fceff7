// Package instance keeps a second daemon from running against the same
// config directory.
package instance

import "errors"

// LockName is the lock file created inside the config directory.
const LockName = "audioflip.lock"

// ErrAlreadyRunning is returned when another process holds the lock.
var ErrAlreadyRunning = errors.New("instance: another audioflip daemon is already running")
