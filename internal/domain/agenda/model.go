// Package agenda manages the clinic's daily appointment book and the
// "call this patient" action that feeds the waiting-room bridge.
package agenda

import (
	"time"

	"github.com/google/uuid"
)

// Appointment maps to the appointment table: one patient visit slot on the
// clinic agenda.
type Appointment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientName  string    `db:"patient_name" json:"patient_name"`
	Practitioner string    `db:"practitioner" json:"practitioner"`
	RoomLabel    string    `db:"room_label" json:"room_label"`
	MonitorID    *string   `db:"monitor_id" json:"monitor_id,omitempty"`
	Status       string    `db:"status" json:"status"`
	ScheduledAt  time.Time `db:"scheduled_at" json:"scheduled_at"`
	Reason       *string   `db:"reason" json:"reason,omitempty"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Appointment statuses, from booking through the waiting room to the chart.
const (
	StatusWaiting   = "waiting"
	StatusCalled    = "called"
	StatusInConsult = "in-consult"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

var validStatuses = map[string]bool{
	StatusWaiting: true, StatusCalled: true, StatusInConsult: true,
	StatusCompleted: true, StatusCancelled: true, StatusNoShow: true,
}
