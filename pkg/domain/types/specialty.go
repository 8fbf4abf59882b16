package types

// Specialty is a medical specialty used for appointment referrals.
type Specialty string

const (
	SpecialtyEndocrinology Specialty = "Endocrinology"
	SpecialtyCardiology    Specialty = "Cardiology"
	SpecialtyNephrology    Specialty = "Nephrology"
	SpecialtyPodiatry      Specialty = "Podiatry"
	SpecialtyOphthalmology Specialty = "Ophthalmology"
	SpecialtyPrimaryCare   Specialty = "Primary Care"
)

// String returns the string representation of the specialty
func (s Specialty) String() string {
	return string(s)
}
