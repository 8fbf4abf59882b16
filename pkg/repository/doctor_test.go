package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/repository/memory"
)

func runDoctorRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	seedDoctor := func(t *testing.T, repo interfaces.Repository, id, specialty string) {
		t.Helper()
		ctx := context.Background()
		if _, err := repo.Doctor().Create(ctx, &model.Doctor{
			ID:        types.DoctorID(id),
			Name:      "Dr. " + id,
			Specialty: types.Specialty(specialty),
		}); err != nil {
			t.Fatalf("failed to create doctor: %v", err)
		}
	}

	t.Run("ListBySpecialty filters doctors", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		seedDoctor(t, repo, "DR001", "endocrinology")
		seedDoctor(t, repo, "DR002", "cardiology")
		seedDoctor(t, repo, "DR003", "endocrinology")

		doctors, err := repo.Doctor().ListBySpecialty(ctx, "endocrinology")
		if err != nil {
			t.Fatalf("failed to list by specialty: %v", err)
		}
		if len(doctors) != 2 {
			t.Errorf("expected 2 endocrinologists, got %d", len(doctors))
		}
	})

	t.Run("AvailableSlots returns unbooked slots earliest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		seedDoctor(t, repo, "DR001", "endocrinology")

		base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
		for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
			if err := repo.Doctor().AddSlot(ctx, &model.Slot{
				DoctorID: "DR001",
				StartsAt: base.Add(offset),
			}); err != nil {
				t.Fatalf("failed to add slot: %v", err)
			}
		}

		slots, err := repo.Doctor().AvailableSlots(ctx, "DR001")
		if err != nil {
			t.Fatalf("failed to list slots: %v", err)
		}
		if len(slots) != 3 {
			t.Fatalf("expected 3 slots, got %d", len(slots))
		}
		if !slots[0].StartsAt.Equal(base) {
			t.Errorf("expected earliest slot first, got %v", slots[0].StartsAt)
		}
	})

	t.Run("BookSlot marks slot as booked", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		seedDoctor(t, repo, "DR001", "endocrinology")

		startsAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
		if err := repo.Doctor().AddSlot(ctx, &model.Slot{DoctorID: "DR001", StartsAt: startsAt}); err != nil {
			t.Fatalf("failed to add slot: %v", err)
		}

		if err := repo.Doctor().BookSlot(ctx, "DR001", startsAt); err != nil {
			t.Fatalf("failed to book slot: %v", err)
		}

		slots, err := repo.Doctor().AvailableSlots(ctx, "DR001")
		if err != nil {
			t.Fatalf("failed to list slots: %v", err)
		}
		if len(slots) != 0 {
			t.Errorf("expected no available slots after booking, got %d", len(slots))
		}

		// Double booking fails
		if err := repo.Doctor().BookSlot(ctx, "DR001", startsAt); err == nil {
			t.Error("expected error when booking an already booked slot")
		}
	})

	t.Run("AddSlot fails for unknown doctor", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		err := repo.Doctor().AddSlot(ctx, &model.Slot{
			DoctorID: "DR404",
			StartsAt: time.Now(),
		})
		if err == nil {
			t.Error("expected error for unknown doctor")
		}
		if !isNotFound(err) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func runAppointmentRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns an ID and ListByPatient filters", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Appointment().Create(ctx, &model.Appointment{
			PatientID: "PT001",
			DoctorID:  "DR001",
			StartsAt:  time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
			Reason:    "A1C above target",
		})
		if err != nil {
			t.Fatalf("failed to create appointment: %v", err)
		}
		if created.ID == "" {
			t.Error("expected assigned appointment ID")
		}

		if _, err := repo.Appointment().Create(ctx, &model.Appointment{
			PatientID: "PT002",
			DoctorID:  "DR001",
			StartsAt:  time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("failed to create appointment: %v", err)
		}

		appts, err := repo.Appointment().ListByPatient(ctx, "PT001")
		if err != nil {
			t.Fatalf("failed to list appointments: %v", err)
		}
		if len(appts) != 1 {
			t.Fatalf("expected 1 appointment, got %d", len(appts))
		}
		if appts[0].Reason != "A1C above target" {
			t.Errorf("unexpected reason: %s", appts[0].Reason)
		}
	})
}

func TestMemoryDoctorRepository(t *testing.T) {
	runDoctorRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreDoctorRepository(t *testing.T) {
	runDoctorRepositoryTest(t, newFirestoreRepository)
}

func TestMemoryAppointmentRepository(t *testing.T) {
	runAppointmentRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreAppointmentRepository(t *testing.T) {
	runAppointmentRepositoryTest(t, newFirestoreRepository)
}
