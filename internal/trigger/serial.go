package trigger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaud is used when no baud rate is configured.
	DefaultBaud     = 9600
	serialReadPoll  = 200 * time.Millisecond
	maxSerialLine   = 512
	reconnectPeriod = 5 * time.Second
)

// Serial reads newline-delimited commands from a serial device and answers
// each with one reply line.
type Serial struct {
	device string
	baud   int
}

// NewSerial creates a trigger for device (e.g. /dev/ttyACM0).
func NewSerial(device string, baud int) *Serial {
	if baud <= 0 {
		baud = DefaultBaud
	}
	return &Serial{device: device, baud: baud}
}

// Run serves the device until ctx is cancelled. If the device is unplugged
// it is reopened every few seconds.
func (s *Serial) Run(ctx context.Context, t Target) {
	for {
		err := s.runOnce(ctx, t)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("trigger: serial device unavailable, retrying", "device", s.device, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectPeriod):
		}
	}
}

func (s *Serial) runOnce(ctx context.Context, t Target) error {
	port, err := serial.Open(s.device, &serial.Mode{
		BaudRate: s.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", s.device, err)
	}
	defer port.Close()

	if err := port.SetReadTimeout(serialReadPoll); err != nil {
		return fmt.Errorf("set read timeout: %w", err)
	}
	slog.Info("trigger: serial device opened", "device", s.device, "baud", s.baud)
	return Serve(ctx, port, t)
}

// Serve runs the command loop over rw. A read returning (0, nil) is treated
// as a poll timeout, which is how serial ports with a read timeout behave.
func Serve(ctx context.Context, rw io.ReadWriter, t Target) error {
	var pending []byte
	buf := make([]byte, 128)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := rw.Read(buf)
		pending = append(pending, buf[:n]...)

		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			line := string(bytes.TrimRight(pending[:i], "\r"))
			pending = pending[i+1:]
			if reply := handleLine(ctx, t, line); reply != "" {
				if _, werr := io.WriteString(rw, reply+"\n"); werr != nil {
					return fmt.Errorf("write reply: %w", werr)
				}
			}
		}
		if len(pending) > maxSerialLine {
			slog.Warn("trigger: discarding overlong serial line", "bytes", len(pending))
			pending = pending[:0]
		}

		if err != nil {
			return err
		}
	}
}

func handleLine(ctx context.Context, t Target, line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	cmd, err := ParseCommand(line)
	if err != nil {
		slog.Warn("trigger: ignoring serial line", "line", line, "err", err)
		return "err " + err.Error()
	}
	reply := Dispatch(ctx, t, cmd)
	slog.Debug("trigger: serial command", "op", cmd.Op, "id", cmd.ID, "reply", reply)
	return reply
}
