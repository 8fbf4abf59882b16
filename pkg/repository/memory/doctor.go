package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

type doctorRepository struct {
	mu      sync.RWMutex
	doctors map[types.DoctorID]*model.Doctor
	slots   map[types.DoctorID][]*model.Slot
}

func newDoctorRepository() *doctorRepository {
	return &doctorRepository{
		doctors: make(map[types.DoctorID]*model.Doctor),
		slots:   make(map[types.DoctorID][]*model.Slot),
	}
}

func copyDoctor(d *model.Doctor) *model.Doctor {
	copied := *d
	return &copied
}

func copySlot(s *model.Slot) *model.Slot {
	copied := *s
	return &copied
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyDoctor(doctor)
	created.CreatedAt = time.Now().UTC()
	r.doctors[created.ID] = created

	return copyDoctor(created), nil
}

func (r *doctorRepository) Get(ctx context.Context, id types.DoctorID) (*model.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doctor, exists := r.doctors[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "doctor not found", goerr.V("doctorID", id))
	}

	return copyDoctor(doctor), nil
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		result = append(result, copyDoctor(d))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (r *doctorRepository) ListBySpecialty(ctx context.Context, specialty types.Specialty) ([]*model.Doctor, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var result []*model.Doctor
	for _, d := range all {
		if d.Specialty == specialty {
			result = append(result, d)
		}
	}

	return result, nil
}

func (r *doctorRepository) AddSlot(ctx context.Context, slot *model.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.doctors[slot.DoctorID]; !exists {
		return goerr.Wrap(ErrNotFound, "doctor not found", goerr.V("doctorID", slot.DoctorID))
	}

	r.slots[slot.DoctorID] = append(r.slots[slot.DoctorID], copySlot(slot))
	return nil
}

func (r *doctorRepository) AvailableSlots(ctx context.Context, doctorID types.DoctorID) ([]*model.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Slot
	for _, s := range r.slots[doctorID] {
		if !s.Booked {
			result = append(result, copySlot(s))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartsAt.Before(result[j].StartsAt)
	})

	return result, nil
}

func (r *doctorRepository) BookSlot(ctx context.Context, doctorID types.DoctorID, startsAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.slots[doctorID] {
		if s.StartsAt.Equal(startsAt) && !s.Booked {
			s.Booked = true
			return nil
		}
	}

	return goerr.Wrap(ErrNotFound, "slot not available",
		goerr.V("doctorID", doctorID),
		goerr.V("startsAt", startsAt),
	)
}

type appointmentRepository struct {
	mu           sync.RWMutex
	appointments map[types.AppointmentID]*model.Appointment
}

func newAppointmentRepository() *appointmentRepository {
	return &appointmentRepository{
		appointments: make(map[types.AppointmentID]*model.Appointment),
	}
}

func copyAppointment(a *model.Appointment) *model.Appointment {
	copied := *a
	return &copied
}

func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyAppointment(appt)
	if created.ID == "" {
		created.ID = types.NewAppointmentID()
	}
	created.CreatedAt = time.Now().UTC()
	r.appointments[created.ID] = created

	return copyAppointment(created), nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID types.PatientID) ([]*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			result = append(result, copyAppointment(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartsAt.Before(result[j].StartsAt)
	})

	return result, nil
}
