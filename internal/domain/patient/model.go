// Package patient holds the clinic's patient registry: demographics,
// contact details and insurance coverage.
package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table.
type Patient struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	GivenName  string    `db:"given_name" json:"given_name"`
	FamilyName string    `db:"family_name" json:"family_name"`
	BirthDate  time.Time `db:"birth_date" json:"birth_date"`
	Sex        string    `db:"sex" json:"sex"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Address    *string   `db:"address" json:"address,omitempty"`
	Insurer    *string   `db:"insurer" json:"insurer,omitempty"`
	PolicyNo   *string   `db:"policy_no" json:"policy_no,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Administrative sex codes accepted at registration.
const (
	SexFemale  = "female"
	SexMale    = "male"
	SexOther   = "other"
	SexUnknown = "unknown"
)

var validSexes = map[string]bool{
	SexFemale: true, SexMale: true, SexOther: true, SexUnknown: true,
}

// FullName renders the display name used on agenda screens and call events.
func (p *Patient) FullName() string {
	if p.FamilyName == "" {
		return p.GivenName
	}
	return p.GivenName + " " + p.FamilyName
}
