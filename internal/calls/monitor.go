package calls

import (
	"sync"
	"time"
)

// HistorySize bounds the monitor's call history, current call included.
const HistorySize = 4

// DefaultHighlight is how long a newly accepted call stays highlighted
// before the display returns to its ambient state.
const DefaultHighlight = 5 * time.Second

// Monitor is the display-side controller. It merges events arriving from the
// push subscription and the local fallback channel into one logical stream,
// suppressing duplicates and stale events by timestamp, and keeps the
// bounded announcement history the screen renders from.
type Monitor struct {
	monitorID string
	highlight time.Duration

	mu          sync.Mutex
	lastSeen    int64
	current     *CallEvent
	history     []CallEvent
	highlighted bool
	idleTimer   *time.Timer
}

// NewMonitor creates a controller for the given monitor id (GeneralMonitor
// when empty). highlight <= 0 selects DefaultHighlight.
func NewMonitor(monitorID string, highlight time.Duration) *Monitor {
	if monitorID == "" {
		monitorID = GeneralMonitor
	}
	if highlight <= 0 {
		highlight = DefaultHighlight
	}
	return &Monitor{monitorID: monitorID, highlight: highlight}
}

// Receive feeds one event from either channel into the controller. It
// reports whether the event was accepted as the new current call. Events for
// other monitors (the local channel is not server-filtered) and events whose
// timestamp is not newer than the last accepted one are discarded silently.
func (m *Monitor) Receive(event CallEvent) bool {
	if event.MonitorID != m.monitorID && event.MonitorID != GeneralMonitor && m.monitorID != GeneralMonitor {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if event.Timestamp <= m.lastSeen {
		return false
	}
	m.lastSeen = event.Timestamp

	ev := event
	m.current = &ev
	m.history = append([]CallEvent{event}, m.history...)
	if len(m.history) > HistorySize {
		m.history = m.history[:HistorySize]
	}

	m.highlighted = true
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	m.idleTimer = time.AfterFunc(m.highlight, func() {
		m.mu.Lock()
		m.highlighted = false
		m.mu.Unlock()
	})

	return true
}

// Current returns the call currently on display, or nil before the first
// accepted call.
func (m *Monitor) Current() *CallEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	ev := *m.current
	return &ev
}

// History returns the accepted calls, most recent first.
func (m *Monitor) History() []CallEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallEvent, len(m.history))
	copy(out, m.history)
	return out
}

// Highlighted reports whether the display is still in its announcement pulse.
func (m *Monitor) Highlighted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highlighted
}

// LastSeen returns the dedup watermark.
func (m *Monitor) LastSeen() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSeen
}
