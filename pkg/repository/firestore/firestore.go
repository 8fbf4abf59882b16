package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/kmufti7/careflow/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

type Firestore struct {
	client      *firestore.Client
	prefix      string
	patient     *patientRepository
	note        *noteRepository
	doctor      *doctorRepository
	appointment *appointmentRepository
	guideline   *guidelineRepository
	audit       *auditRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name, mainly for test
// isolation against a shared project.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.prefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, options ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{client: client}
	for _, opt := range options {
		opt(f)
	}

	f.patient = newPatientRepository(client, f.prefix)
	f.note = newNoteRepository(client, f.prefix)
	f.doctor = newDoctorRepository(client, f.prefix)
	f.appointment = newAppointmentRepository(client, f.prefix)
	f.guideline = newGuidelineRepository(client, f.prefix)
	f.audit = newAuditRepository(client, f.prefix)

	return f, nil
}

func (f *Firestore) Patient() interfaces.PatientRepository {
	return f.patient
}

func (f *Firestore) Note() interfaces.NoteRepository {
	return f.note
}

func (f *Firestore) Doctor() interfaces.DoctorRepository {
	return f.doctor
}

func (f *Firestore) Appointment() interfaces.AppointmentRepository {
	return f.appointment
}

func (f *Firestore) Guideline() interfaces.GuidelineRepository {
	return f.guideline
}

func (f *Firestore) Audit() interfaces.AuditRepository {
	return f.audit
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
