// Package client is a Go client for the AudioFlip HTTP API, used by flipctl
// and the terminal panel.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/easyaudioflip/audioflip/internal/models"
)

// DefaultAddr is the daemon's default listen address.
const DefaultAddr = "127.0.0.1:7077"

// Client talks to a running AudioFlip daemon.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

// New creates a client for addr ("host:port" or a full http URL).
func New(addr, apiKey string) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base:   base,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ToggleResult is the answer to an enablement change.
type ToggleResult struct {
	Devices   []models.PanelDevice
	Persisted bool
}

// RefreshResult is the answer to a re-enumeration.
type RefreshResult struct {
	Devices           []models.PanelDevice
	PlatformAvailable bool
}

type deviceList struct {
	Devices []models.PanelDevice `json:"devices"`
}

// Snapshot returns the full view.
func (c *Client) Snapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	_, err := c.do(ctx, http.MethodGet, "/api", nil, &snap)
	return snap, err
}

// Devices returns the checklist.
func (c *Client) Devices(ctx context.Context) ([]models.PanelDevice, error) {
	var list deviceList
	_, err := c.do(ctx, http.MethodGet, "/api/devices", nil, &list)
	return list.Devices, err
}

// Toggle flips whether id takes part in the rotation.
func (c *Client) Toggle(ctx context.Context, id string) (ToggleResult, error) {
	var list deviceList
	resp, err := c.do(ctx, http.MethodPost, "/api/devices/"+url.PathEscape(id)+"/toggle", nil, &list)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Devices: list.Devices, Persisted: headerBool(resp, "X-Config-Persisted")}, nil
}

// SetEnabled sets whether id takes part in the rotation.
func (c *Client) SetEnabled(ctx context.Context, id string, enabled bool) (ToggleResult, error) {
	body := models.EnabledUpdate{Enabled: &enabled}
	var list deviceList
	resp, err := c.do(ctx, http.MethodPatch, "/api/devices/"+url.PathEscape(id), body, &list)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Devices: list.Devices, Persisted: headerBool(resp, "X-Config-Persisted")}, nil
}

// Next advances the rotation. It returns nil when there was nothing to
// rotate between.
func (c *Client) Next(ctx context.Context) (*models.Device, error) {
	var dev models.Device
	resp, err := c.do(ctx, http.MethodPost, "/api/next", nil, &dev)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return &dev, nil
}

// Refresh asks the daemon to re-enumerate devices.
func (c *Client) Refresh(ctx context.Context) (RefreshResult, error) {
	var list deviceList
	resp, err := c.do(ctx, http.MethodPost, "/api/refresh", nil, &list)
	if err != nil {
		return RefreshResult{}, err
	}
	return RefreshResult{Devices: list.Devices, PlatformAvailable: headerBool(resp, "X-Platform-Available")}, nil
}

// Info returns daemon information.
func (c *Client) Info(ctx context.Context) (models.Info, error) {
	var info models.Info
	_, err := c.do(ctx, http.MethodGet, "/api/info", nil, &info)
	return info, err
}

// Quit asks the daemon to shut down.
func (c *Client) Quit(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/quit", nil, nil)
	return err
}

// Subscribe streams events until ctx is cancelled or the connection drops,
// then closes the returned channel.
func (c *Client) Subscribe(ctx context.Context) (<-chan models.Event, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/subscribe", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream is long-lived, so it must not inherit the request timeout.
	stream := &http.Client{Transport: c.http.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	ch := make(chan models.Event, 8)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev models.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = strings.NewReader(string(data))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

// do sends a request and decodes a 2xx JSON body into out. Error responses
// come back as *models.AppError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp, decodeError(resp)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	appErr := &models.AppError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, appErr); err != nil || appErr.Code == "" {
		return &models.AppError{
			Code:    models.CodeInternal,
			Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))),
			Status:  resp.StatusCode,
		}
	}
	return appErr
}

func headerBool(resp *http.Response, name string) bool {
	v, err := strconv.ParseBool(resp.Header.Get(name))
	return err == nil && v
}
