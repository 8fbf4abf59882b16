package types

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// PatientID represents a unique identifier for a patient (e.g. "PT001")
type PatientID string

// Validate checks if the PatientID is valid
func (p PatientID) Validate() error {
	if p == "" {
		return goerr.New("patient ID cannot be empty")
	}
	if !idPattern.MatchString(string(p)) {
		return goerr.New("patient ID must be alphanumeric with hyphens or underscores", goerr.V("id", p))
	}
	return nil
}

// String returns the string representation of PatientID
func (p PatientID) String() string {
	return string(p)
}

// DoctorID represents a unique identifier for a doctor
type DoctorID string

// String returns the string representation of DoctorID
func (d DoctorID) String() string {
	return string(d)
}

// NoteID represents a unique identifier for a clinical note
type NoteID string

// NewNoteID generates a new note ID
func NewNoteID() NoteID {
	return NoteID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of NoteID
func (n NoteID) String() string {
	return string(n)
}

// AppointmentID represents a unique identifier for an appointment
type AppointmentID string

// NewAppointmentID generates a new appointment ID
func NewAppointmentID() AppointmentID {
	return AppointmentID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of AppointmentID
func (a AppointmentID) String() string {
	return string(a)
}

// GuidelineID references a guideline document (e.g. "guideline_001_a1c_threshold")
type GuidelineID string

// String returns the string representation of GuidelineID
func (g GuidelineID) String() string {
	return string(g)
}
