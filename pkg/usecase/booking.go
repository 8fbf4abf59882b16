package usecase

import (
	"context"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// Book books the earliest slot for the specialty and records the attempt in
// the audit log.
func (uc *UseCases) Book(ctx context.Context, patientID types.PatientID, specialty types.Specialty, reason, preferredDate string) (*model.BookingResult, error) {
	result, err := uc.booking.BookAppointment(ctx, patientID, specialty, reason, preferredDate)
	if err != nil {
		return nil, err
	}
	uc.audit(ctx, patientID, "BookingTool", "book_appointment", result.Success, result.Message)
	return result, nil
}

// Appointments lists the patient's booked appointments.
func (uc *UseCases) Appointments(ctx context.Context, patientID types.PatientID) ([]*model.Appointment, error) {
	return uc.booking.PatientAppointments(ctx, patientID)
}
