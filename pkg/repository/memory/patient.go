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

type patientRepository struct {
	mu       sync.RWMutex
	patients map[types.PatientID]*model.Patient
}

func newPatientRepository() *patientRepository {
	return &patientRepository{
		patients: make(map[types.PatientID]*model.Patient),
	}
}

func copyPatient(p *model.Patient) *model.Patient {
	copied := *p
	return &copied
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (*model.Patient, error) {
	if err := patient.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid patient ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyPatient(patient)
	created.CreatedAt = time.Now().UTC()
	r.patients[created.ID] = created

	return copyPatient(created), nil
}

func (r *patientRepository) Get(ctx context.Context, id types.PatientID) (*model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, exists := r.patients[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "patient not found", goerr.V("patientID", id))
	}

	return copyPatient(patient), nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		result = append(result, copyPatient(p))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

type noteRepository struct {
	mu    sync.RWMutex
	notes map[types.PatientID][]*model.Note
}

func newNoteRepository() *noteRepository {
	return &noteRepository{
		notes: make(map[types.PatientID][]*model.Note),
	}
}

func copyNote(n *model.Note) *model.Note {
	copied := *n
	return &copied
}

func (r *noteRepository) Create(ctx context.Context, note *model.Note) (*model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyNote(note)
	if created.ID == "" {
		created.ID = types.NewNoteID()
	}
	created.CreatedAt = time.Now().UTC()

	r.notes[created.PatientID] = append(r.notes[created.PatientID], created)

	return copyNote(created), nil
}

func (r *noteRepository) ListByPatient(ctx context.Context, patientID types.PatientID) ([]*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := r.notes[patientID]
	result := make([]*model.Note, 0, len(notes))
	for _, n := range notes {
		result = append(result, copyNote(n))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].NoteDate > result[j].NoteDate
	})

	return result, nil
}

func (r *noteRepository) Latest(ctx context.Context, patientID types.PatientID) (*model.Note, error) {
	notes, err := r.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, goerr.Wrap(ErrNotFound, "no notes for patient", goerr.V("patientID", patientID))
	}

	return notes[0], nil
}
