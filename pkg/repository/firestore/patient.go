package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

type patientDoc struct {
	ID        string    `firestore:"ID"`
	Name      string    `firestore:"Name"`
	DOB       string    `firestore:"DOB"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

func toPatientDoc(p *model.Patient) *patientDoc {
	return &patientDoc{
		ID:        string(p.ID),
		Name:      p.Name,
		DOB:       p.DOB,
		CreatedAt: p.CreatedAt,
	}
}

func fromPatientDoc(d *patientDoc) *model.Patient {
	return &model.Patient{
		ID:        types.PatientID(d.ID),
		Name:      d.Name,
		DOB:       d.DOB,
		CreatedAt: d.CreatedAt,
	}
}

type patientRepository struct {
	client *firestore.Client
	prefix string
}

func newPatientRepository(client *firestore.Client, prefix string) *patientRepository {
	return &patientRepository{client: client, prefix: prefix}
}

func (r *patientRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.prefix + "patients")
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (*model.Patient, error) {
	if err := patient.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid patient ID")
	}

	created := *patient
	created.CreatedAt = time.Now().UTC()

	if _, err := r.collection().Doc(string(created.ID)).Set(ctx, toPatientDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create patient", goerr.V("patientID", created.ID))
	}

	return &created, nil
}

func (r *patientRepository) Get(ctx context.Context, id types.PatientID) (*model.Patient, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "patient not found", goerr.V("patientID", id))
		}
		return nil, goerr.Wrap(err, "failed to get patient", goerr.V("patientID", id))
	}

	var d patientDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal patient", goerr.V("patientID", id))
	}

	return fromPatientDoc(&d), nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	iter := r.collection().OrderBy("ID", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	patients := make([]*model.Patient, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate patients")
		}

		var d patientDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal patient")
		}

		patients = append(patients, fromPatientDoc(&d))
	}

	return patients, nil
}

type noteDoc struct {
	ID        string    `firestore:"ID"`
	PatientID string    `firestore:"PatientID"`
	NoteDate  string    `firestore:"NoteDate"`
	Text      string    `firestore:"Text"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

func toNoteDoc(n *model.Note) *noteDoc {
	return &noteDoc{
		ID:        string(n.ID),
		PatientID: string(n.PatientID),
		NoteDate:  n.NoteDate,
		Text:      n.Text,
		CreatedAt: n.CreatedAt,
	}
}

func fromNoteDoc(d *noteDoc) *model.Note {
	return &model.Note{
		ID:        types.NoteID(d.ID),
		PatientID: types.PatientID(d.PatientID),
		NoteDate:  d.NoteDate,
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
	}
}

type noteRepository struct {
	client *firestore.Client
	prefix string
}

func newNoteRepository(client *firestore.Client, prefix string) *noteRepository {
	return &noteRepository{client: client, prefix: prefix}
}

func (r *noteRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.prefix + "patient_notes")
}

func (r *noteRepository) Create(ctx context.Context, note *model.Note) (*model.Note, error) {
	created := *note
	if created.ID == "" {
		created.ID = types.NewNoteID()
	}
	created.CreatedAt = time.Now().UTC()

	if _, err := r.collection().Doc(string(created.ID)).Set(ctx, toNoteDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create note", goerr.V("noteID", created.ID))
	}

	return &created, nil
}

func (r *noteRepository) ListByPatient(ctx context.Context, patientID types.PatientID) ([]*model.Note, error) {
	iter := r.collection().
		Where("PatientID", "==", string(patientID)).
		OrderBy("NoteDate", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	notes := make([]*model.Note, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate notes", goerr.V("patientID", patientID))
		}

		var d noteDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal note")
		}

		notes = append(notes, fromNoteDoc(&d))
	}

	return notes, nil
}

func (r *noteRepository) Latest(ctx context.Context, patientID types.PatientID) (*model.Note, error) {
	iter := r.collection().
		Where("PatientID", "==", string(patientID)).
		OrderBy("NoteDate", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "no notes for patient", goerr.V("patientID", patientID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest note", goerr.V("patientID", patientID))
	}

	var d noteDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal note")
	}

	return fromNoteDoc(&d), nil
}
