package mocks

import (
	"sync"
)

// MockBroadcaster records full-reload signals.
type MockBroadcaster struct {
	Mu    sync.Mutex
	Calls int
	// Err is returned from every FullReload call when set.
	Err error
	// OnReload is invoked on each call, before Err is returned.
	OnReload func()
}

// NewMockBroadcaster creates a MockBroadcaster that always succeeds.
func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{}
}

// FullReload implements reload.Broadcaster.
func (m *MockBroadcaster) FullReload() error {
	m.Mu.Lock()
	m.Calls++
	hook, err := m.OnReload, m.Err
	m.Mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

// CallCount returns the number of FullReload calls so far.
func (m *MockBroadcaster) CallCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Calls
}
