package model

import (
	"time"

	"github.com/kmufti7/careflow/pkg/domain/types"
)

// Patient is a demographics record. The note text is the clinical
// system-of-record; extracted facts are always derived, never stored.
type Patient struct {
	ID        types.PatientID
	Name      string `masq:"secret"`
	DOB       string `masq:"secret"`
	CreatedAt time.Time
}

// Note is a free-text clinic note for a patient.
type Note struct {
	ID        types.NoteID
	PatientID types.PatientID
	NoteDate  string
	Text      string `masq:"secret"`
	CreatedAt time.Time
}
