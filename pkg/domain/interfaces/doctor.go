package interfaces

import (
	"context"
	"time"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// DoctorRepository manages doctors and their appointment slots
type DoctorRepository interface {
	Create(ctx context.Context, doctor *model.Doctor) (*model.Doctor, error)
	Get(ctx context.Context, id types.DoctorID) (*model.Doctor, error)
	List(ctx context.Context) ([]*model.Doctor, error)
	ListBySpecialty(ctx context.Context, specialty types.Specialty) ([]*model.Doctor, error)

	AddSlot(ctx context.Context, slot *model.Slot) error

	// AvailableSlots returns unbooked slots for the doctor, earliest first.
	AvailableSlots(ctx context.Context, doctorID types.DoctorID) ([]*model.Slot, error)

	// BookSlot marks the slot as taken. Returns ErrNotFound if the slot does
	// not exist or is already booked.
	BookSlot(ctx context.Context, doctorID types.DoctorID, startsAt time.Time) error
}

// AppointmentRepository manages booked appointments
type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) (*model.Appointment, error)
	ListByPatient(ctx context.Context, patientID types.PatientID) ([]*model.Appointment, error)
}
