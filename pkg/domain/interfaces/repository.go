package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Patient() PatientRepository
	Note() NoteRepository
	Doctor() DoctorRepository
	Appointment() AppointmentRepository
	Guideline() GuidelineRepository
	Audit() AuditRepository

	Close() error
}
