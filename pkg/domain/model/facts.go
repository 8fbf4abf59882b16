package model

import (
	"strings"

	"github.com/kmufti7/careflow/pkg/domain/types"
)

// BloodPressure is a single systolic/diastolic reading in mmHg.
type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// ExtractedFacts is the structured clinical record produced from one note.
// A nil pointer or empty slice means the field was not found; absence is a
// valid state, not an error. Instances are created fresh per extraction and
// must not be mutated after being returned.
type ExtractedFacts struct {
	A1C              *float64               `json:"a1c,omitempty"`
	BloodPressure    *BloodPressure         `json:"blood_pressure,omitempty"`
	Diagnoses        []string               `json:"diagnoses"`
	Medications      []string               `json:"medications"`
	ExtractionMethod types.ExtractionMethod `json:"extraction_method"`
	Confidence       float64                `json:"confidence"`

	// RawExtractions holds matched fragments for diagnostics only. It is
	// non-authoritative and never fed back into reasoning.
	RawExtractions map[string]string `json:"raw_extractions,omitempty"`
}

// IsComplete reports whether all four critical fields were extracted.
func (f *ExtractedFacts) IsComplete() bool {
	return f.A1C != nil &&
		f.BloodPressure != nil &&
		len(f.Diagnoses) > 0 &&
		len(f.Medications) > 0
}

// MissingFields returns the names of fields that could not be extracted.
func (f *ExtractedFacts) MissingFields() []string {
	var missing []string
	if f.A1C == nil {
		missing = append(missing, "a1c")
	}
	if f.BloodPressure == nil {
		missing = append(missing, "blood_pressure")
	}
	if len(f.Diagnoses) == 0 {
		missing = append(missing, "diagnoses")
	}
	if len(f.Medications) == 0 {
		missing = append(missing, "medications")
	}
	return missing
}

// HasDiagnosis reports whether any diagnosis contains the keyword,
// case-insensitively.
func (f *ExtractedFacts) HasDiagnosis(keyword string) bool {
	kw := strings.ToLower(keyword)
	for _, dx := range f.Diagnoses {
		if strings.Contains(strings.ToLower(dx), kw) {
			return true
		}
	}
	return false
}
