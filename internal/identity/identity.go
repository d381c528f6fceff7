// Package identity provides version and host information for AudioFlip.
package identity

import (
	"os"
	"runtime/debug"
)

// DefaultVersion is the fallback version string when no build version is stamped.
const DefaultVersion = "0.1.0-dev"

// Version can be set at link time:
//
//	go build -ldflags "-X github.com/easyaudioflip/audioflip/internal/identity.Version=1.2.0"
var Version = ""

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "audioflip"
	}
	return h
}

// GetVersion returns the link-time version, then the module version recorded
// in the build info, then DefaultVersion.
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return DefaultVersion
}
