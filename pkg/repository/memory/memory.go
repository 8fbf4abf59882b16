package memory

import (
	"github.com/kmufti7/careflow/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository used for development and tests.
type Memory struct {
	patient     *patientRepository
	note        *noteRepository
	doctor      *doctorRepository
	appointment *appointmentRepository
	guideline   *guidelineRepository
	audit       *auditRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		patient:     newPatientRepository(),
		note:        newNoteRepository(),
		doctor:      newDoctorRepository(),
		appointment: newAppointmentRepository(),
		guideline:   newGuidelineRepository(),
		audit:       newAuditRepository(),
	}
}

func (m *Memory) Patient() interfaces.PatientRepository {
	return m.patient
}

func (m *Memory) Note() interfaces.NoteRepository {
	return m.note
}

func (m *Memory) Doctor() interfaces.DoctorRepository {
	return m.doctor
}

func (m *Memory) Appointment() interfaces.AppointmentRepository {
	return m.appointment
}

func (m *Memory) Guideline() interfaces.GuidelineRepository {
	return m.guideline
}

func (m *Memory) Audit() interfaces.AuditRepository {
	return m.audit
}

func (m *Memory) Close() error {
	return nil
}
