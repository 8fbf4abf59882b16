// Package booking books specialist appointments for patients. Booking
// failures are domain outcomes carried in the result, not errors: an
// unknown specialty or a full calendar must not abort an analysis run.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/repository/firestore"
	"github.com/kmufti7/careflow/pkg/repository/memory"
)

// GapToSpecialty maps care-gap types to the specialty that follows them up.
var GapToSpecialty = map[types.GapType]types.Specialty{
	types.GapTypeA1CThreshold:   types.SpecialtyEndocrinology,
	types.GapTypeHTNACEARB:      types.SpecialtyCardiology,
	types.GapTypeBPControl:      types.SpecialtyCardiology,
	types.GapTypeKidneyFunction: types.SpecialtyNephrology,
	types.GapTypeStatin:         types.SpecialtyCardiology,
	types.GapTypeFootExam:       types.SpecialtyPodiatry,
	types.GapTypeEyeExam:        types.SpecialtyOphthalmology,
}

// Service books appointments against the repository.
type Service struct {
	repo interfaces.Repository
}

// New creates a new booking service
func New(repo interfaces.Repository) *Service {
	return &Service{repo: repo}
}

// BookAppointment books the earliest available slot for the given specialty.
// An optional preferredDate (YYYY-MM-DD) narrows the search to that day; if
// nothing is free that day, the earliest slot overall is taken instead.
func (s *Service) BookAppointment(ctx context.Context, patientID types.PatientID, specialty types.Specialty, reason, preferredDate string) (*model.BookingResult, error) {
	if _, err := s.repo.Patient().Get(ctx, patientID); err != nil {
		if isNotFound(err) {
			return &model.BookingResult{
				Success:   false,
				PatientID: patientID,
				Message:   "Patient not found",
				Error:     fmt.Sprintf("No patient found with ID %s", patientID),
			}, nil
		}
		return nil, goerr.Wrap(err, "failed to look up patient", goerr.V("patientID", patientID))
	}

	doctors, err := s.repo.Doctor().ListBySpecialty(ctx, specialty)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list doctors", goerr.V("specialty", specialty))
	}
	if len(doctors) == 0 {
		// Case-insensitive second pass
		all, err := s.repo.Doctor().List(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list doctors")
		}
		for _, d := range all {
			if strings.EqualFold(d.Specialty.String(), specialty.String()) {
				doctors = append(doctors, d)
			}
		}
	}
	if len(doctors) == 0 {
		return &model.BookingResult{
			Success:   false,
			PatientID: patientID,
			Specialty: specialty,
			Message:   fmt.Sprintf("No doctors found for specialty: %s", specialty),
			Error:     fmt.Sprintf("Specialty '%s' not available", specialty),
		}, nil
	}

	type candidate struct {
		doctor *model.Doctor
		slot   *model.Slot
	}

	collect := func(dateFilter string) ([]candidate, error) {
		var out []candidate
		for _, d := range doctors {
			slots, err := s.repo.Doctor().AvailableSlots(ctx, d.ID)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to list slots", goerr.V("doctorID", d.ID))
			}
			for _, slot := range slots {
				if dateFilter != "" && slot.StartsAt.Format("2006-01-02") != dateFilter {
					continue
				}
				out = append(out, candidate{doctor: d, slot: slot})
			}
		}
		return out, nil
	}

	candidates, err := collect(preferredDate)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 && preferredDate != "" {
		candidates, err = collect("")
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return &model.BookingResult{
			Success:   false,
			PatientID: patientID,
			Specialty: specialty,
			Message:   fmt.Sprintf("No available slots for %s", specialty),
			Error:     "No available appointment slots",
		}, nil
	}

	// Earliest slot wins
	selected := candidates[0]
	for _, c := range candidates[1:] {
		if c.slot.StartsAt.Before(selected.slot.StartsAt) {
			selected = c
		}
	}

	if err := s.repo.Doctor().BookSlot(ctx, selected.doctor.ID, selected.slot.StartsAt); err != nil {
		return &model.BookingResult{
			Success:   false,
			PatientID: patientID,
			Specialty: specialty,
			Message:   "Failed to book appointment",
			Error:     err.Error(),
		}, nil
	}

	appt, err := s.repo.Appointment().Create(ctx, &model.Appointment{
		PatientID: patientID,
		DoctorID:  selected.doctor.ID,
		StartsAt:  selected.slot.StartsAt,
		Reason:    reason,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create appointment record")
	}

	return &model.BookingResult{
		Success:       true,
		AppointmentID: appt.ID,
		PatientID:     patientID,
		DoctorID:      selected.doctor.ID,
		DoctorName:    selected.doctor.Name,
		Specialty:     selected.doctor.Specialty,
		StartsAt:      selected.slot.StartsAt,
		Reason:        reason,
		Message: fmt.Sprintf("Appointment booked with %s (%s) on %s",
			selected.doctor.Name,
			selected.doctor.Specialty,
			selected.slot.StartsAt.Format("January 2, 2006 at 3:04 PM"),
		),
	}, nil
}

// BookForGap books a referral appointment for a detected care gap. Unknown
// gap types yield a failed result, not an error.
func (s *Service) BookForGap(ctx context.Context, patientID types.PatientID, gapType types.GapType, gapDescription string) (*model.BookingResult, error) {
	specialty, ok := GapToSpecialty[gapType]
	if !ok {
		return &model.BookingResult{
			Success:   false,
			PatientID: patientID,
			Message:   fmt.Sprintf("Unknown gap type: %s", gapType),
			Error:     fmt.Sprintf("Cannot determine specialty for gap type '%s'", gapType),
		}, nil
	}

	reason := fmt.Sprintf("Care gap follow-up: %s", gapType)
	if gapDescription != "" {
		reason = fmt.Sprintf("%s - %s", reason, gapDescription)
	}

	return s.BookAppointment(ctx, patientID, specialty, reason, "")
}

// PatientAppointments lists every appointment booked for the patient.
func (s *Service) PatientAppointments(ctx context.Context, patientID types.PatientID) ([]*model.Appointment, error) {
	return s.repo.Appointment().ListByPatient(ctx, patientID)
}

// AvailableSpecialties returns the sorted set of specialties with at least
// one doctor.
func (s *Service) AvailableSpecialties(ctx context.Context) ([]types.Specialty, error) {
	doctors, err := s.repo.Doctor().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list doctors")
	}

	seen := map[types.Specialty]struct{}{}
	var specialties []types.Specialty
	for _, d := range doctors {
		if _, ok := seen[d.Specialty]; ok {
			continue
		}
		seen[d.Specialty] = struct{}{}
		specialties = append(specialties, d.Specialty)
	}

	sort.Slice(specialties, func(i, j int) bool {
		return specialties[i] < specialties[j]
	})

	return specialties, nil
}

// isNotFound matches the not-found sentinel from either backend.
func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}
