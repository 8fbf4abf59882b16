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

type doctorDoc struct {
	ID        string    `firestore:"ID"`
	Name      string    `firestore:"Name"`
	Specialty string    `firestore:"Specialty"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

func toDoctorDoc(d *model.Doctor) *doctorDoc {
	return &doctorDoc{
		ID:        string(d.ID),
		Name:      d.Name,
		Specialty: string(d.Specialty),
		CreatedAt: d.CreatedAt,
	}
}

func fromDoctorDoc(d *doctorDoc) *model.Doctor {
	return &model.Doctor{
		ID:        types.DoctorID(d.ID),
		Name:      d.Name,
		Specialty: types.Specialty(d.Specialty),
		CreatedAt: d.CreatedAt,
	}
}

type slotDoc struct {
	DoctorID string    `firestore:"DoctorID"`
	StartsAt time.Time `firestore:"StartsAt"`
	Booked   bool      `firestore:"Booked"`
}

func fromSlotDoc(d *slotDoc) *model.Slot {
	return &model.Slot{
		DoctorID: types.DoctorID(d.DoctorID),
		StartsAt: d.StartsAt,
		Booked:   d.Booked,
	}
}

type doctorRepository struct {
	client *firestore.Client
	prefix string
}

func newDoctorRepository(client *firestore.Client, prefix string) *doctorRepository {
	return &doctorRepository{client: client, prefix: prefix}
}

func (r *doctorRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.prefix + "doctors")
}

func (r *doctorRepository) slots(doctorID types.DoctorID) *firestore.CollectionRef {
	return r.collection().Doc(string(doctorID)).Collection("slots")
}

func slotDocID(startsAt time.Time) string {
	return startsAt.UTC().Format(time.RFC3339)
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) (*model.Doctor, error) {
	created := *doctor
	created.CreatedAt = time.Now().UTC()

	if _, err := r.collection().Doc(string(created.ID)).Set(ctx, toDoctorDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create doctor", goerr.V("doctorID", created.ID))
	}

	return &created, nil
}

func (r *doctorRepository) Get(ctx context.Context, id types.DoctorID) (*model.Doctor, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "doctor not found", goerr.V("doctorID", id))
		}
		return nil, goerr.Wrap(err, "failed to get doctor", goerr.V("doctorID", id))
	}

	var d doctorDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal doctor", goerr.V("doctorID", id))
	}

	return fromDoctorDoc(&d), nil
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	return r.listQuery(ctx, r.collection().OrderBy("ID", firestore.Asc))
}

func (r *doctorRepository) ListBySpecialty(ctx context.Context, specialty types.Specialty) ([]*model.Doctor, error) {
	return r.listQuery(ctx, r.collection().Where("Specialty", "==", string(specialty)))
}

func (r *doctorRepository) listQuery(ctx context.Context, q firestore.Query) ([]*model.Doctor, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	doctors := make([]*model.Doctor, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate doctors")
		}

		var d doctorDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal doctor")
		}

		doctors = append(doctors, fromDoctorDoc(&d))
	}

	return doctors, nil
}

func (r *doctorRepository) AddSlot(ctx context.Context, slot *model.Slot) error {
	if _, err := r.Get(ctx, slot.DoctorID); err != nil {
		return err
	}

	doc := &slotDoc{
		DoctorID: string(slot.DoctorID),
		StartsAt: slot.StartsAt.UTC(),
		Booked:   slot.Booked,
	}
	if _, err := r.slots(slot.DoctorID).Doc(slotDocID(slot.StartsAt)).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to add slot", goerr.V("doctorID", slot.DoctorID))
	}

	return nil
}

func (r *doctorRepository) AvailableSlots(ctx context.Context, doctorID types.DoctorID) ([]*model.Slot, error) {
	iter := r.slots(doctorID).
		Where("Booked", "==", false).
		OrderBy("StartsAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	slots := make([]*model.Slot, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate slots", goerr.V("doctorID", doctorID))
		}

		var d slotDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal slot")
		}

		slots = append(slots, fromSlotDoc(&d))
	}

	return slots, nil
}

func (r *doctorRepository) BookSlot(ctx context.Context, doctorID types.DoctorID, startsAt time.Time) error {
	ref := r.slots(doctorID).Doc(slotDocID(startsAt))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "slot not available",
					goerr.V("doctorID", doctorID),
					goerr.V("startsAt", startsAt),
				)
			}
			return goerr.Wrap(err, "failed to get slot")
		}

		var d slotDoc
		if err := doc.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to unmarshal slot")
		}
		if d.Booked {
			return goerr.Wrap(ErrNotFound, "slot not available",
				goerr.V("doctorID", doctorID),
				goerr.V("startsAt", startsAt),
			)
		}

		return tx.Update(ref, []firestore.Update{{Path: "Booked", Value: true}})
	})
	if err != nil {
		return err
	}

	return nil
}

type appointmentDoc struct {
	ID        string    `firestore:"ID"`
	PatientID string    `firestore:"PatientID"`
	DoctorID  string    `firestore:"DoctorID"`
	StartsAt  time.Time `firestore:"StartsAt"`
	Reason    string    `firestore:"Reason"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

func toAppointmentDoc(a *model.Appointment) *appointmentDoc {
	return &appointmentDoc{
		ID:        string(a.ID),
		PatientID: string(a.PatientID),
		DoctorID:  string(a.DoctorID),
		StartsAt:  a.StartsAt,
		Reason:    a.Reason,
		CreatedAt: a.CreatedAt,
	}
}

func fromAppointmentDoc(d *appointmentDoc) *model.Appointment {
	return &model.Appointment{
		ID:        types.AppointmentID(d.ID),
		PatientID: types.PatientID(d.PatientID),
		DoctorID:  types.DoctorID(d.DoctorID),
		StartsAt:  d.StartsAt,
		Reason:    d.Reason,
		CreatedAt: d.CreatedAt,
	}
}

type appointmentRepository struct {
	client *firestore.Client
	prefix string
}

func newAppointmentRepository(client *firestore.Client, prefix string) *appointmentRepository {
	return &appointmentRepository{client: client, prefix: prefix}
}

func (r *appointmentRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.prefix + "appointments")
}

func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) (*model.Appointment, error) {
	created := *appt
	if created.ID == "" {
		created.ID = types.NewAppointmentID()
	}
	created.CreatedAt = time.Now().UTC()

	if _, err := r.collection().Doc(string(created.ID)).Set(ctx, toAppointmentDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create appointment", goerr.V("appointmentID", created.ID))
	}

	return &created, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID types.PatientID) ([]*model.Appointment, error) {
	iter := r.collection().
		Where("PatientID", "==", string(patientID)).
		OrderBy("StartsAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	appts := make([]*model.Appointment, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate appointments", goerr.V("patientID", patientID))
		}

		var d appointmentDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal appointment")
		}

		appts = append(appts, fromAppointmentDoc(&d))
	}

	return appts, nil
}
