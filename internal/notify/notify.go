// Package notify shows a desktop notification whenever the rotation switches
// the default output device.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/easyaudioflip/audioflip/internal/models"
)

const (
	appName         = "AudioFlip"
	expireTimeoutMs = 3000

	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications.Notify"
)

// Sender delivers one notification. replaces is the id of a previous
// notification to update in place, or 0; the returned id can be passed back.
type Sender interface {
	Send(ctx context.Context, summary, body string, replaces uint32) (uint32, error)
}

// DBusSender talks to the freedesktop notification daemon on the session bus.
// The connection is opened on first use.
type DBusSender struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

// NewDBusSender creates a sender. It does not connect yet.
func NewDBusSender() *DBusSender {
	return &DBusSender{}
}

func (s *DBusSender) Send(ctx context.Context, summary, body string, replaces uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return 0, err
		}
		s.conn = conn
	}

	hints := map[string]dbus.Variant{
		"transient": dbus.MakeVariant(true),
		"category":  dbus.MakeVariant("device"),
	}
	obj := s.conn.Object(notificationsDest, notificationsPath)
	call := obj.CallWithContext(ctx, notificationsIface, 0,
		appName, replaces, "audio-card", summary, body, []string{}, hints, int32(expireTimeoutMs))
	if call.Err != nil {
		// The bus may have gone away; reconnect next time.
		s.conn.Close()
		s.conn = nil
		return 0, call.Err
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Close releases the bus connection.
func (s *DBusSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Notifier turns advance events into notifications. Each one replaces the
// previous, so rapid rotation does not stack popups.
type Notifier struct {
	sender Sender
	lastID uint32
}

// New creates a notifier using sender.
func New(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// Run consumes events until ctx is done or the channel closes.
func (n *Notifier) Run(ctx context.Context, events <-chan models.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			n.Handle(ctx, ev)
		}
	}
}

// Handle shows a notification for an advance event and ignores the rest.
func (n *Notifier) Handle(ctx context.Context, ev models.Event) {
	if ev.Kind != models.EventAdvance || ev.Current == nil {
		return
	}
	id, err := n.sender.Send(ctx, appName, "Output: "+ev.Current.Name, n.lastID)
	if err != nil {
		slog.Debug("notify: notification failed", "err", err)
		return
	}
	n.lastID = id
}
