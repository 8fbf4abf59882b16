package interfaces

import (
	"context"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// PatientRepository manages patient demographics records
type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) (*model.Patient, error)
	Get(ctx context.Context, id types.PatientID) (*model.Patient, error)
	List(ctx context.Context) ([]*model.Patient, error)
}

// NoteRepository manages free-text clinic notes
type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) (*model.Note, error)
	ListByPatient(ctx context.Context, patientID types.PatientID) ([]*model.Note, error)

	// Latest returns the most recent note for the patient, or ErrNotFound.
	Latest(ctx context.Context, patientID types.PatientID) (*model.Note, error)
}
