// Package calls implements the real-time patient-calling bridge: agenda
// screens POST a call request, the broadcaster fans it out over long-lived
// SSE connections to waiting-room monitor displays, and a same-device file
// broadcast serves as an instant local fallback channel.
package calls

// GeneralMonitor is the wildcard monitor identifier. A call addressed to it
// reaches every monitor, and a subscriber registered under it receives every
// call regardless of target.
const GeneralMonitor = "GENERAL"

// CallEvent is the unit of communication between the agenda and the monitors.
// Timestamp is assigned exactly once by the broadcaster at dispatch time and
// doubles as the ordering/dedup key on the monitor side.
type CallEvent struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	RoomLabel   string `json:"roomLabel"`
	MonitorID   string `json:"monitorId"`
	Timestamp   int64  `json:"timestamp"`
}

// CallRequest is the inbound shape of a call. MonitorID is optional and
// defaults to GeneralMonitor. Empty display fields are a display-layer
// concern and are not rejected here.
type CallRequest struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	RoomLabel   string `json:"roomLabel"`
	MonitorID   string `json:"monitorId,omitempty"`
}

// Normalize applies the GeneralMonitor default for an unscoped request.
func (r *CallRequest) Normalize() {
	if r.MonitorID == "" {
		r.MonitorID = GeneralMonitor
	}
}

// MonitorMatches is the single fan-out predicate: a subscriber registered
// under subID receives an event addressed to evtID when either side is the
// GENERAL wildcard or the identifiers match exactly.
func MonitorMatches(subID, evtID string) bool {
	return subID == evtID || subID == GeneralMonitor || evtID == GeneralMonitor
}
