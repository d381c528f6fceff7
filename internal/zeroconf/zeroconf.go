// Package zeroconf advertises the AudioFlip HTTP API over mDNS/DNS-SD so
// remote clients such as flipctl on another machine can find the daemon.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type the daemon registers.
const ServiceType = "_audioflip._tcp"

// Service manages mDNS service registration.
type Service struct {
	name string // instance name, usually the hostname
	port int
	txt  []string
}

// New creates a Service advertising port under the given instance name.
func New(name string, port int, version, backend string) *Service {
	return &Service{
		name: name,
		port: port,
		txt:  TXTRecords(version, backend),
	}
}

// TXTRecords builds the TXT record set published with the service.
func TXTRecords(version, backend string) []string {
	return []string{
		"version=" + version,
		"backend=" + backend,
		"path=/api",
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at which
// point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	server, err := zeroconf.Register(
		s.name,
		ServiceType,
		"local.",
		s.port,
		s.txt,
		nil, // all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"type", ServiceType,
		"port", s.port,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
