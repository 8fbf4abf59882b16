package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/repository/memory"
	"github.com/kmufti7/careflow/pkg/service/booking"
)

func seedClinic(t *testing.T) interfaces.Repository {
	t.Helper()
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.Patient().Create(ctx, &model.Patient{ID: "PT001", Name: "John Smith"})
	gt.NoError(t, err).Required()

	doctors := []*model.Doctor{
		{ID: "DR001", Name: "Dr. Chen", Specialty: types.SpecialtyEndocrinology},
		{ID: "DR002", Name: "Dr. Patel", Specialty: types.SpecialtyCardiology},
	}
	for _, d := range doctors {
		_, err := repo.Doctor().Create(ctx, d)
		gt.NoError(t, err).Required()
	}

	slots := []*model.Slot{
		{DoctorID: "DR001", StartsAt: time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)},
		{DoctorID: "DR001", StartsAt: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)},
		{DoctorID: "DR002", StartsAt: time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)},
	}
	for _, s := range slots {
		gt.NoError(t, repo.Doctor().AddSlot(ctx, s)).Required()
	}

	return repo
}

func TestBookAppointment_EarliestSlot(t *testing.T) {
	repo := seedClinic(t)
	svc := booking.New(repo)
	ctx := context.Background()

	result, err := svc.BookAppointment(ctx, "PT001", types.SpecialtyEndocrinology, "A1C follow-up", "")
	gt.NoError(t, err).Required()

	gt.Bool(t, result.Success).True()
	gt.Value(t, result.DoctorID).Equal(types.DoctorID("DR001"))
	gt.Value(t, result.DoctorName).Equal("Dr. Chen")
	gt.Value(t, result.StartsAt).Equal(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
	gt.Value(t, result.Message).Equal("Appointment booked with Dr. Chen (Endocrinology) on September 1, 2026 at 9:00 AM")

	// The slot is consumed and the appointment persisted.
	slots, err := repo.Doctor().AvailableSlots(ctx, "DR001")
	gt.NoError(t, err).Required()
	gt.Value(t, len(slots)).Equal(1)

	appts, err := svc.PatientAppointments(ctx, "PT001")
	gt.NoError(t, err).Required()
	gt.Value(t, len(appts)).Equal(1)
	gt.Value(t, appts[0].Reason).Equal("A1C follow-up")
}

func TestBookAppointment_PreferredDate(t *testing.T) {
	repo := seedClinic(t)
	svc := booking.New(repo)

	result, err := svc.BookAppointment(context.Background(), "PT001", types.SpecialtyEndocrinology, "follow-up", "2026-09-03")
	gt.NoError(t, err).Required()

	gt.Bool(t, result.Success).True()
	gt.Value(t, result.StartsAt).Equal(time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC))
}

func TestBookAppointment_PreferredDateFallsBackToAnySlot(t *testing.T) {
	repo := seedClinic(t)
	svc := booking.New(repo)

	// Nothing on the preferred date, so the earliest slot overall wins.
	result, err := svc.BookAppointment(context.Background(), "PT001", types.SpecialtyEndocrinology, "follow-up", "2026-12-25")
	gt.NoError(t, err).Required()

	gt.Bool(t, result.Success).True()
	gt.Value(t, result.StartsAt).Equal(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
}

func TestBookAppointment_UnknownPatient(t *testing.T) {
	repo := seedClinic(t)
	svc := booking.New(repo)

	result, err := svc.BookAppointment(context.Background(), "PT404", types.SpecialtyEndocrinology, "follow-up", "")
	gt.NoError(t, err).Required()

	gt.Bool(t, result.Success).False()
	gt.Value(t, result.Message).Equal("Patient not found")
}

func TestBookAppointment_UnknownSpecialty(t *testing.T) {
	repo := seedClinic(t)
	svc := booking.New(repo)

	result, err := svc.BookAppointment(context.Background(), "PT001", types.SpecialtyNephrology, "follow-up", "")
	gt.NoError(t, err).Required()

	gt.Bool(t, result.Success).False()
	gt.Value(t, result.Message).Equal("No doctors found for specialty: Nephrology")
}

func TestBookAppointment_NoSlots(t *testing.T) {
	repo := seedClinic(t)
	svc := booking.New(repo)
	ctx := context.Background()

	// Exhaust cardiology
	first, err := svc.BookAppointment(ctx, "PT001", types.SpecialtyCardiology, "BP follow-up", "")
	gt.NoError(t, err).Required()
	gt.Bool(t, first.Success).True()

	second, err := svc.BookAppointment(ctx, "PT001", types.SpecialtyCardiology, "BP follow-up", "")
	gt.NoError(t, err).Required()
	gt.Bool(t, second.Success).False()
	gt.Value(t, second.Error).Equal("No available appointment slots")
}

func TestBookForGap(t *testing.T) {
	t.Run("maps gap type to specialty", func(t *testing.T) {
		repo := seedClinic(t)
		svc := booking.New(repo)

		result, err := svc.BookForGap(context.Background(), "PT001", types.GapTypeA1CThreshold, "A1C above target")
		gt.NoError(t, err).Required()

		gt.Bool(t, result.Success).True()
		gt.Value(t, result.Specialty).Equal(types.SpecialtyEndocrinology)
		gt.Value(t, result.Reason).Equal("Care gap follow-up: A1C_THRESHOLD - A1C above target")
	})

	t.Run("unknown gap type fails as a value", func(t *testing.T) {
		repo := seedClinic(t)
		svc := booking.New(repo)

		result, err := svc.BookForGap(context.Background(), "PT001", types.GapType("UNKNOWN_GAP"), "")
		gt.NoError(t, err).Required()

		gt.Bool(t, result.Success).False()
		gt.Value(t, result.Message).Equal("Unknown gap type: UNKNOWN_GAP")
	})

	t.Run("every rule gap type has a specialty", func(t *testing.T) {
		for _, gapType := range types.AllGapTypes() {
			_, ok := booking.GapToSpecialty[gapType]
			gt.Bool(t, ok).True()
		}
	})
}

func TestAvailableSpecialties(t *testing.T) {
	repo := seedClinic(t)
	svc := booking.New(repo)

	specialties, err := svc.AvailableSpecialties(context.Background())
	gt.NoError(t, err).Required()

	gt.Array(t, specialties).Equal([]types.Specialty{
		types.SpecialtyCardiology,
		types.SpecialtyEndocrinology,
	})
}
