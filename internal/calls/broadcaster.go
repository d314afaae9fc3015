package calls

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster assigns timestamps to call requests and fans the resulting
// events out to every matching registry entry. Dispatch is fire-and-forget:
// at most one delivery attempt per subscriber, no retry, no acknowledgement.
type Broadcaster struct {
	registry *Registry
	logger   zerolog.Logger

	mu     sync.Mutex
	lastTS int64
}

// NewBroadcaster creates a Broadcaster over the given registry.
func NewBroadcaster(registry *Registry, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, logger: logger}
}

// Dispatch builds the full CallEvent (normalized monitor id, freshly assigned
// timestamp) and writes it to every subscriber whose monitor id matches.
// A write failure is logged and treated as an implicit disconnect for that
// subscriber only; delivery to the remaining subscribers proceeds. Returns
// the constructed event and the number of successful deliveries.
//
// The whole fan-out runs under a mutex so concurrent producers cannot
// interleave partial writes, and so timestamps are non-decreasing across
// dispatches even when the wall clock reads the same millisecond twice.
func (b *Broadcaster) Dispatch(req CallRequest) (CallEvent, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := time.Now().UnixMilli()
	if ts < b.lastTS {
		ts = b.lastTS
	}
	b.lastTS = ts

	event := CallEvent{
		PatientID:   req.PatientID,
		PatientName: req.PatientName,
		RoomLabel:   req.RoomLabel,
		MonitorID:   req.MonitorID,
		Timestamp:   ts,
	}
	if event.MonitorID == "" {
		event.MonitorID = GeneralMonitor
	}

	delivered := 0
	for _, sub := range b.registry.Snapshot() {
		if !MonitorMatches(sub.MonitorID, event.MonitorID) {
			continue
		}
		if err := sub.Send(event); err != nil {
			b.logger.Warn().
				Err(err).
				Str("connection_id", sub.ConnectionID).
				Str("monitor_id", sub.MonitorID).
				Msg("call delivery failed, dropping subscriber")
			b.registry.Remove(sub.ConnectionID)
			continue
		}
		delivered++
	}

	b.logger.Info().
		Str("patient_id", event.PatientID).
		Str("monitor_id", event.MonitorID).
		Int64("timestamp", event.Timestamp).
		Int("delivered", delivered).
		Msg("call dispatched")

	return event, delivered
}
