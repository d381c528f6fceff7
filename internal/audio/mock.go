package audio

import (
	"context"
	"errors"
	"sync"

	"github.com/easyaudioflip/audioflip/internal/models"
)

// Mock is a thread-safe in-memory backend for tests and for platforms
// without a supported audio system.
type Mock struct {
	mu            sync.Mutex
	devices       []models.Device
	current       string
	failEnumerate bool
	failDefault   bool
	failSet       bool
	setCalls      []string
}

// NewMock creates a mock with two stub devices, the speaker being the default.
func NewMock() *Mock {
	return NewMockWithDevices([]models.Device{
		{ID: "stub-speaker", Name: "Speakers (Stub)"},
		{ID: "stub-headphone", Name: "Headphones (Stub)"},
	}, "stub-speaker")
}

// NewMockWithDevices creates a mock with the given devices and default id.
func NewMockWithDevices(devices []models.Device, current string) *Mock {
	m := &Mock{current: current}
	m.devices = append(m.devices, devices...)
	return m
}

// SetDevices replaces the device list, simulating a hot-plug between enumerations.
func (m *Mock) SetDevices(devices []models.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = append([]models.Device(nil), devices...)
}

// SetCurrent changes the default device behind the controller's back.
func (m *Mock) SetCurrent(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = id
}

// SetFailEnumerate configures the mock to fail Enumerate.
func (m *Mock) SetFailEnumerate(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failEnumerate = fail
}

// SetFailDefault configures the mock to fail DefaultDevice.
func (m *Mock) SetFailDefault(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDefault = fail
}

// SetFailSet configures the mock to fail SetDefault.
func (m *Mock) SetFailSet(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = fail
}

// SetCalls returns the ids passed to SetDefault, in call order.
func (m *Mock) SetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.setCalls...)
}

func (m *Mock) Init(ctx context.Context) error { return nil }

func (m *Mock) Enumerate(ctx context.Context) ([]models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEnumerate {
		return nil, platformErr("enumerate", ErrUnavailable)
	}
	out := make([]models.Device, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *Mock) DefaultDevice(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDefault {
		return "", platformErr("get default", ErrUnavailable)
	}
	return m.current, nil
}

func (m *Mock) SetDefault(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls = append(m.setCalls, id)
	if m.failSet {
		return platformErr("set default", errors.New("mock: set failure configured"))
	}
	m.current = id
	return nil
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) IsReal() bool { return false }

var _ Backend = (*Mock)(nil)
