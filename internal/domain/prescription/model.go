// Package prescription covers the clinical orders written during a visit:
// consultation prescriptions with medication lines and surgical indications.
package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription maps to the prescription table. Items is stored as JSONB.
type Prescription struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	PatientID    uuid.UUID        `db:"patient_id" json:"patient_id"`
	Practitioner string           `db:"practitioner" json:"practitioner"`
	Kind         string           `db:"kind" json:"kind"`
	Diagnosis    string           `db:"diagnosis" json:"diagnosis"`
	Procedure    *string          `db:"procedure" json:"procedure,omitempty"`
	Items        []MedicationItem `db:"items" json:"items"`
	Notes        *string          `db:"notes" json:"notes,omitempty"`
	IssuedAt     time.Time        `db:"issued_at" json:"issued_at"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// MedicationItem is one line of a consultation prescription.
type MedicationItem struct {
	Drug      string `json:"drug"`
	Dose      string `json:"dose,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

const (
	KindConsultation = "consultation"
	KindSurgical     = "surgical"
)

var validKinds = map[string]bool{
	KindConsultation: true,
	KindSurgical:     true,
}
