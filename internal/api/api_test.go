package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/easyaudioflip/audioflip/internal/api"
	"github.com/easyaudioflip/audioflip/internal/audio"
	"github.com/easyaudioflip/audioflip/internal/auth"
	"github.com/easyaudioflip/audioflip/internal/config"
	"github.com/easyaudioflip/audioflip/internal/controller"
	"github.com/easyaudioflip/audioflip/internal/events"
	"github.com/easyaudioflip/audioflip/internal/models"
)

type testEnv struct {
	srv   *httptest.Server
	hw    *audio.Mock
	store *config.MemStore
	quit  chan struct{}
}

func testDevices() []models.Device {
	return []models.Device{
		{ID: "spk", Name: "Speakers"},
		{ID: "usb sink", Name: "USB DAC"},
		{ID: "hp", Name: "Headphones"},
	}
}

// newTestEnv spins up a full router over a mock backend. configDir may hold a
// keys.json; pass "" for open mode.
func newTestEnv(t *testing.T, devices []models.Device, configDir string) *testEnv {
	t.Helper()

	if configDir == "" {
		configDir = t.TempDir()
	}
	hw := audio.NewMockWithDevices(devices, "spk")
	store := config.NewMemStore()
	bus := events.NewBus()
	ctrl := controller.New(context.Background(), hw, store, bus)

	authSvc, err := auth.NewService(configDir)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	quit := make(chan struct{}, 1)
	router := api.NewRouter(ctrl, authSvc, bus, func() { quit <- struct{}{} })
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		authSvc.Close()
	})
	return &testEnv{srv: srv, hw: hw, store: store, quit: quit}
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do %s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
}

func requireStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, expected, body)
	}
}

func findRow(t *testing.T, devices []models.PanelDevice, id string) models.PanelDevice {
	t.Helper()
	for _, d := range devices {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("no row %q in %+v", id, devices)
	return models.PanelDevice{}
}

// --- Tests ---

func TestGetSnapshot(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "GET", "/api", "")
	requireStatus(t, resp, http.StatusOK)

	var snap models.Snapshot
	decodeJSON(t, resp, &snap)
	if len(snap.Devices) != 3 {
		t.Errorf("devices = %d, want 3", len(snap.Devices))
	}
	if snap.Current == nil || snap.Current.ID != "spk" {
		t.Errorf("current = %+v, want spk", snap.Current)
	}
	if snap.Tooltip != "AudioFlip - Speakers" {
		t.Errorf("tooltip = %q", snap.Tooltip)
	}
	if snap.PanelHeight != 3*32+96 {
		t.Errorf("panel_height = %d", snap.PanelHeight)
	}
}

func TestGetDevices_EnumerationOrder(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "GET", "/api/devices", "")
	requireStatus(t, resp, http.StatusOK)

	var list api.DeviceList
	decodeJSON(t, resp, &list)
	want := []string{"spk", "usb sink", "hp"}
	for i, id := range want {
		if list.Devices[i].ID != id {
			t.Errorf("devices[%d] = %q, want %q", i, list.Devices[i].ID, id)
		}
		if !list.Devices[i].Enabled {
			t.Errorf("devices[%d] not enabled on fresh config", i)
		}
	}
	if !list.Devices[0].IsCurrent || list.Devices[1].IsCurrent {
		t.Error("is_current not set on spk only")
	}
}

func TestToggleDevice(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "POST", "/api/devices/hp/toggle", "")
	requireStatus(t, resp, http.StatusOK)
	if got := resp.Header.Get("X-Config-Persisted"); got != "true" {
		t.Errorf("X-Config-Persisted = %q, want true", got)
	}
	var list api.DeviceList
	decodeJSON(t, resp, &list)
	if findRow(t, list.Devices, "hp").Enabled {
		t.Error("hp still enabled after toggle")
	}

	cfg, _ := env.store.Load()
	for _, id := range cfg.EnabledDeviceIDs {
		if id == "hp" {
			t.Error("hp still persisted as enabled")
		}
	}
}

func TestToggleDevice_EscapedID(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "POST", "/api/devices/usb%20sink/toggle", "")
	requireStatus(t, resp, http.StatusOK)
	var list api.DeviceList
	decodeJSON(t, resp, &list)
	if findRow(t, list.Devices, "usb sink").Enabled {
		t.Error("usb sink still enabled after toggle")
	}
}

func TestToggleDevice_OpaqueIDs(t *testing.T) {
	devices := []models.Device{
		{ID: "sink%41", Name: "Percent sink"},
		{ID: "a%b", Name: "Bare percent"},
		{ID: "bluez/AA:BB", Name: "Buds"},
		{ID: "sinkA", Name: "Decoded lookalike"},
	}
	cases := []struct {
		path string
		id   string
	}{
		{"/api/devices/sink%2541/toggle", "sink%41"},
		{"/api/devices/a%25b/toggle", "a%b"},
		{"/api/devices/bluez%2FAA:BB/toggle", "bluez/AA:BB"},
	}
	for _, tc := range cases {
		env := newTestEnv(t, devices, "")

		resp := do(t, env.srv, "POST", tc.path, "")
		requireStatus(t, resp, http.StatusOK)
		var list api.DeviceList
		decodeJSON(t, resp, &list)

		for _, row := range list.Devices {
			if want := row.ID != tc.id; row.Enabled != want {
				t.Errorf("%s: row %q enabled = %v, want %v", tc.path, row.ID, row.Enabled, want)
			}
		}
		cfg, err := env.store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(cfg.EnabledDeviceIDs) != len(devices)-1 {
			t.Errorf("%s: persisted %v, want every id except %q", tc.path, cfg.EnabledDeviceIDs, tc.id)
		}
		for _, id := range cfg.EnabledDeviceIDs {
			if id == tc.id {
				t.Errorf("%s: %q still persisted", tc.path, id)
			}
		}
	}
}

func TestToggleDevice_PersistFailureStillApplies(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")
	env.store.SetFailSave(true)

	resp := do(t, env.srv, "POST", "/api/devices/hp/toggle", "")
	requireStatus(t, resp, http.StatusOK)
	if got := resp.Header.Get("X-Config-Persisted"); got != "false" {
		t.Errorf("X-Config-Persisted = %q, want false", got)
	}
	var list api.DeviceList
	decodeJSON(t, resp, &list)
	if findRow(t, list.Devices, "hp").Enabled {
		t.Error("toggle not applied when persistence failed")
	}
}

func TestSetDevice(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "PATCH", "/api/devices/spk", `{"enabled": false}`)
	requireStatus(t, resp, http.StatusOK)
	var list api.DeviceList
	decodeJSON(t, resp, &list)
	row := findRow(t, list.Devices, "spk")
	if row.Enabled || !row.IsCurrent {
		t.Errorf("spk = %+v, want disabled and still current", row)
	}

	// Same call again is accepted.
	resp = do(t, env.srv, "PATCH", "/api/devices/spk", `{"enabled": false}`)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestSetDevice_BadRequests(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	for _, body := range []string{`{not valid json`, `{}`} {
		resp := do(t, env.srv, "PATCH", "/api/devices/spk", body)
		requireStatus(t, resp, http.StatusBadRequest)
		var appErr models.AppError
		decodeJSON(t, resp, &appErr)
		if appErr.Code != models.CodeBadRequest {
			t.Errorf("body %s: code = %q", body, appErr.Code)
		}
	}
}

func TestNext(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "POST", "/api/next", "")
	requireStatus(t, resp, http.StatusOK)
	var dev models.Device
	decodeJSON(t, resp, &dev)
	if dev.ID != "usb sink" {
		t.Errorf("next = %+v, want usb sink", dev)
	}
	if id, _ := env.hw.DefaultDevice(context.Background()); id != "usb sink" {
		t.Errorf("OS default = %q", id)
	}
}

func TestNext_NoChange(t *testing.T) {
	env := newTestEnv(t, []models.Device{{ID: "spk", Name: "Speakers"}}, "")

	resp := do(t, env.srv, "POST", "/api/next", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
}

func TestNext_SetFailure(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")
	env.hw.SetFailSet(true)

	resp := do(t, env.srv, "POST", "/api/next", "")
	requireStatus(t, resp, http.StatusBadGateway)
	var appErr models.AppError
	decodeJSON(t, resp, &appErr)
	if appErr.Code != models.CodeDefaultSetFailed {
		t.Errorf("code = %q", appErr.Code)
	}

	resp = do(t, env.srv, "GET", "/api", "")
	var snap models.Snapshot
	decodeJSON(t, resp, &snap)
	if snap.Current == nil || snap.Current.ID != "spk" {
		t.Errorf("current = %+v after failed next, want spk", snap.Current)
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")
	env.hw.SetDevices([]models.Device{{ID: "hp", Name: "Headphones"}, {ID: "bt", Name: "Bluetooth"}})

	resp := do(t, env.srv, "POST", "/api/refresh", "")
	requireStatus(t, resp, http.StatusOK)
	if got := resp.Header.Get("X-Platform-Available"); got != "true" {
		t.Errorf("X-Platform-Available = %q", got)
	}
	var list api.DeviceList
	decodeJSON(t, resp, &list)
	if len(list.Devices) != 2 || list.Devices[0].ID != "hp" {
		t.Errorf("devices = %+v", list.Devices)
	}
	if findRow(t, list.Devices, "bt").Enabled {
		t.Error("new device enabled without opt-in")
	}
}

func TestRefresh_PlatformFailure(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")
	env.hw.SetFailEnumerate(true)

	resp := do(t, env.srv, "POST", "/api/refresh", "")
	requireStatus(t, resp, http.StatusOK)
	if got := resp.Header.Get("X-Platform-Available"); got != "false" {
		t.Errorf("X-Platform-Available = %q, want false", got)
	}
	var list api.DeviceList
	decodeJSON(t, resp, &list)
	if len(list.Devices) != 0 {
		t.Errorf("devices = %+v, want empty", list.Devices)
	}
}

func TestGetInfo(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "GET", "/api/info", "")
	requireStatus(t, resp, http.StatusOK)
	var info models.Info
	decodeJSON(t, resp, &info)
	if info.Version == "" {
		t.Error("version field is empty")
	}
	if info.Backend != "mock" {
		t.Errorf("backend = %q", info.Backend)
	}
}

func TestGetIcon(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "GET", "/api/icon.png", "")
	requireStatus(t, resp, http.StatusOK)
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if _, err := png.Decode(resp.Body); err != nil {
		t.Errorf("icon is not a PNG: %v", err)
	}
}

func TestQuit(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "POST", "/api/quit", "")
	requireStatus(t, resp, http.StatusAccepted)
	resp.Body.Close()

	select {
	case <-env.quit:
	case <-time.After(time.Second):
		t.Fatal("quit callback not invoked")
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "GET", "/api/nonexistent", "")
	requireStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	resp := do(t, env.srv, "OPTIONS", "/api/next", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestAuth_SecuredMode(t *testing.T) {
	dir := t.TempDir()
	keys := `{"phone": {"key": "s3cret"}}`
	if err := os.WriteFile(filepath.Join(dir, "keys.json"), []byte(keys), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	env := newTestEnv(t, testDevices(), dir)

	resp := do(t, env.srv, "POST", "/api/next", "")
	requireStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	req, _ := http.NewRequest("POST", env.srv.URL+"/api/next", nil)
	req.Header.Set(auth.HeaderAPIKey, "s3cret")
	resp, err := env.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

// readSSE returns the next SSE data payload from sc.
func readSSE(t *testing.T, sc *bufio.Scanner) models.Event {
	t.Helper()
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev models.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("SSE data is not valid Event JSON: %v", err)
		}
		return ev
	}
	t.Fatalf("SSE stream ended: %v", sc.Err())
	return models.Event{}
}

func TestSSESubscribe(t *testing.T) {
	env := newTestEnv(t, testDevices(), "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/api/subscribe", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	first := readSSE(t, sc)
	if first.Kind != models.EventSnapshot || len(first.Devices) != 3 {
		t.Fatalf("first event = %+v, want snapshot", first)
	}

	next := do(t, env.srv, "POST", "/api/next", "")
	requireStatus(t, next, http.StatusOK)
	next.Body.Close()

	ev := readSSE(t, sc)
	if ev.Kind != models.EventAdvance {
		t.Errorf("kind = %q, want advance", ev.Kind)
	}
	if ev.Current == nil || ev.Current.ID != "usb sink" {
		t.Errorf("current = %+v", ev.Current)
	}
}
