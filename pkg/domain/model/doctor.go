package model

import (
	"time"

	"github.com/kmufti7/careflow/pkg/domain/types"
)

// Doctor is a referral target with a single specialty.
type Doctor struct {
	ID        types.DoctorID
	Name      string
	Specialty types.Specialty
	CreatedAt time.Time
}

// Slot is an appointment slot offered by a doctor.
type Slot struct {
	DoctorID types.DoctorID
	StartsAt time.Time
	Booked   bool
}

// Appointment links a patient to a booked slot.
type Appointment struct {
	ID        types.AppointmentID
	PatientID types.PatientID
	DoctorID  types.DoctorID
	StartsAt  time.Time
	Reason    string
	CreatedAt time.Time
}

// BookingResult reports the outcome of a booking attempt. Failures are
// values, not errors: an unknown specialty or a full calendar is a normal
// domain outcome.
type BookingResult struct {
	Success       bool                `json:"success"`
	AppointmentID types.AppointmentID `json:"appointment_id,omitempty"`
	PatientID     types.PatientID     `json:"patient_id,omitempty"`
	DoctorID      types.DoctorID      `json:"doctor_id,omitempty"`
	DoctorName    string              `json:"doctor_name,omitempty"`
	Specialty     types.Specialty     `json:"specialty,omitempty"`
	StartsAt      time.Time           `json:"starts_at,omitzero"`
	Reason        string              `json:"reason,omitempty"`
	Message       string              `json:"message"`
	Error         string              `json:"error,omitempty"`
}
