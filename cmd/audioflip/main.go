// Command audioflip is the AudioFlip daemon. It owns the output device
// rotation and serves it over HTTP on the loopback interface.
// Run with --mock to use stub devices (no PulseAudio/PipeWire required).
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/easyaudioflip/audioflip/internal/api"
	"github.com/easyaudioflip/audioflip/internal/audio"
	"github.com/easyaudioflip/audioflip/internal/auth"
	"github.com/easyaudioflip/audioflip/internal/config"
	"github.com/easyaudioflip/audioflip/internal/controller"
	"github.com/easyaudioflip/audioflip/internal/crashlog"
	"github.com/easyaudioflip/audioflip/internal/events"
	"github.com/easyaudioflip/audioflip/internal/identity"
	"github.com/easyaudioflip/audioflip/internal/instance"
	"github.com/easyaudioflip/audioflip/internal/maintenance"
	"github.com/easyaudioflip/audioflip/internal/notify"
	"github.com/easyaudioflip/audioflip/internal/trigger"
	"github.com/easyaudioflip/audioflip/internal/zeroconf"
)

func main() {
	var (
		mock       = flag.Bool("mock", false, "use stub audio devices instead of pactl")
		addr       = flag.String("addr", "127.0.0.1:7077", "HTTP listen address")
		cfgDir     = flag.String("config-dir", "", "config directory (default: ~/.config/audioflip)")
		debug      = flag.Bool("debug", false, "enable debug logging")
		mdns       = flag.Bool("mdns", false, "advertise the HTTP API over mDNS")
		serialDev  = flag.String("serial", "", "serial trigger device, e.g. /dev/ttyACM0")
		serialBaud = flag.Int("serial-baud", trigger.DefaultBaud, "serial trigger baud rate")
		gpioPin    = flag.String("gpio-pin", "", "GPIO pin for the advance button, e.g. GPIO17")
		notifyOn   = flag.Bool("notify", false, "show a desktop notification when the output changes")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "audioflip")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	crashFile, err := crashlog.Install(*cfgDir)
	if err != nil {
		slog.Warn("crash log unavailable", "err", err)
	} else {
		defer crashFile.Close()
	}

	lock, err := instance.Acquire(*cfgDir)
	if err != nil {
		slog.Error("cannot start", "config", *cfgDir, "err", err)
		os.Exit(1)
	}
	defer lock.Release()

	if path, err := maintenance.Backup(*cfgDir, time.Now()); err != nil {
		slog.Warn("config backup failed", "err", err)
	} else if path != "" {
		slog.Info("config backed up", "file", path)
	}
	if files, err := maintenance.ListBackups(*cfgDir); err == nil && len(files) > 0 {
		slog.Debug("config backups on disk", "count", len(files), "oldest", filepath.Base(files[0]))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend := selectBackend(ctx, *mock)

	store := config.NewJSONStore(*cfgDir)
	bus := events.NewBus()
	ctrl := controller.New(ctx, backend, store, bus)

	authSvc, err := auth.NewService(*cfgDir)
	if err != nil {
		slog.Error("auth service initialization failed", "err", err)
		os.Exit(1)
	}
	defer authSvc.Close()
	if !authSvc.IsOpenMode() {
		slog.Info("api keys loaded, requests must authenticate")
	}

	if *mdns {
		zc := zeroconf.New(identity.GetHostname(), listenPort(*addr), identity.GetVersion(), backend.Name())
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	if *serialDev != "" {
		go trigger.NewSerial(*serialDev, *serialBaud).Run(ctx, ctrl)
	}
	if *gpioPin != "" {
		go func() {
			if err := trigger.NewButton(*gpioPin).Run(ctx, ctrl); err != nil {
				slog.Warn("gpio button unavailable", "pin", *gpioPin, "err", err)
			}
		}()
	}

	if *notifyOn {
		sender := notify.NewDBusSender()
		defer sender.Close()
		sub := bus.Subscribe("notify")
		defer bus.Unsubscribe("notify")
		go notify.New(sender).Run(ctx, sub)
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(ctrl, authSvc, bus, cancel),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("AudioFlip listening",
			"addr", *addr,
			"backend", backend.Name(),
			"config", store.Path(),
			"version", identity.GetVersion(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}
	slog.Info("shutdown complete")
}

// selectBackend returns the pactl backend, or the stub backend when --mock is
// set or pactl is not usable on this machine.
func selectBackend(ctx context.Context, mock bool) audio.Backend {
	if mock {
		slog.Info("using stub audio backend")
		return audio.NewMock()
	}
	p := audio.NewPactl()
	if err := p.Init(ctx); err != nil {
		slog.Warn("pactl unavailable, falling back to stub devices", "err", err)
		return audio.NewMock()
	}
	slog.Info("using pactl audio backend")
	return p
}

func listenPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 7077
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 7077
	}
	return port
}
