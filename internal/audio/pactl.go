package audio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/easyaudioflip/audioflip/internal/models"
)

const (
	pactlBinary     = "pactl"
	maxCallsPerSec  = 10
	callBurst       = 5
	defaultSinkLine = "Default Sink:"
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Pactl is the PulseAudio/PipeWire backend. It drives the pactl binary, so it
// works against both pulseaudio and pipewire-pulse.
type Pactl struct {
	bin     string
	run     Runner
	limiter *rate.Limiter
}

// NewPactl creates a backend that executes the system pactl binary.
func NewPactl() *Pactl {
	return NewPactlWithRunner(findBinary(pactlBinary), execRunner)
}

// NewPactlWithRunner creates a backend with a custom command runner.
func NewPactlWithRunner(bin string, run Runner) *Pactl {
	return &Pactl{
		bin:     bin,
		run:     run,
		limiter: rate.NewLimiter(rate.Limit(maxCallsPerSec), callBurst),
	}
}

func (p *Pactl) Init(ctx context.Context) error {
	if _, err := p.pactl(ctx, "info"); err != nil {
		return platformErr("init", err)
	}
	slog.Debug("pactl: sound server reachable", "bin", p.bin)
	return nil
}

type pactlSink struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	State       string `json:"state"`
}

func (p *Pactl) Enumerate(ctx context.Context) ([]models.Device, error) {
	out, err := p.pactl(ctx, "--format=json", "list", "sinks")
	if err == nil {
		devices, perr := parseSinksJSON(out)
		if perr == nil {
			return devices, nil
		}
		slog.Debug("pactl: JSON sink list unparseable, falling back", "err", perr)
	} else if errors.Is(err, ErrUnavailable) {
		return nil, platformErr("enumerate", err)
	}

	// pactl older than 16 has no --format flag.
	out, err = p.pactl(ctx, "list", "short", "sinks")
	if err != nil {
		return nil, platformErr("enumerate", err)
	}
	return parseSinksShort(out), nil
}

func (p *Pactl) DefaultDevice(ctx context.Context) (string, error) {
	out, err := p.pactl(ctx, "get-default-sink")
	if err == nil {
		if id := strings.TrimSpace(string(out)); id != "" {
			return id, nil
		}
	} else if errors.Is(err, ErrUnavailable) {
		return "", platformErr("get default", err)
	}

	out, err = p.pactl(ctx, "info")
	if err != nil {
		return "", platformErr("get default", err)
	}
	id := parseDefaultSink(out)
	if id == "" {
		return "", platformErr("get default", errors.New("no default sink reported"))
	}
	return id, nil
}

func (p *Pactl) SetDefault(ctx context.Context, id string) error {
	if _, err := p.pactl(ctx, "set-default-sink", id); err != nil {
		return platformErr("set default", err)
	}
	return nil
}

func (p *Pactl) Name() string { return "pactl" }

func (p *Pactl) IsReal() bool { return true }

func (p *Pactl) pactl(ctx context.Context, args ...string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.run(ctx, p.bin, args...)
}

func parseSinksJSON(out []byte) ([]models.Device, error) {
	var sinks []pactlSink
	if err := json.Unmarshal(out, &sinks); err != nil {
		return nil, err
	}
	devices := make([]models.Device, 0, len(sinks))
	for _, s := range sinks {
		if s.Name == "" {
			continue
		}
		name := s.Description
		if name == "" {
			name = s.Name
		}
		devices = append(devices, models.Device{ID: s.Name, Name: name})
	}
	return devices, nil
}

// parseSinksShort parses `pactl list short sinks`:
// index <TAB> name <TAB> driver <TAB> sample spec <TAB> state
func parseSinksShort(out []byte) []models.Device {
	var devices []models.Device
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
			continue
		}
		name := strings.TrimSpace(fields[1])
		devices = append(devices, models.Device{ID: name, Name: name})
	}
	return devices
}

func parseDefaultSink(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, defaultSinkLine) {
			return strings.TrimSpace(strings.TrimPrefix(line, defaultSinkLine))
		}
	}
	return ""
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err == nil {
		return out, nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrUnavailable)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
}

// findBinary resolves a binary from PATH, then /usr/bin.
func findBinary(name string) string {
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	if p := filepath.Join("/usr/bin", name); fileExists(p) {
		return p
	}
	// Return the name and let exec fail with ErrNotFound
	return name
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

var _ Backend = (*Pactl)(nil)
