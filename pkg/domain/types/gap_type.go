package types

import "fmt"

// GapType identifies a care-gap rule.
type GapType string

const (
	GapTypeA1CThreshold GapType = "A1C_THRESHOLD"
	GapTypeHTNACEARB    GapType = "HTN_ACE_ARB"
	GapTypeBPControl    GapType = "BP_CONTROL"

	// Defined for booking referrals even though no rule produces them yet.
	GapTypeKidneyFunction GapType = "KIDNEY_FUNCTION"
	GapTypeStatin         GapType = "STATIN"
	GapTypeFootExam       GapType = "FOOT_EXAM"
	GapTypeEyeExam        GapType = "EYE_EXAM"
)

// AllGapTypes returns all gap types that the rule engine evaluates, in rule order.
func AllGapTypes() []GapType {
	return []GapType{
		GapTypeA1CThreshold,
		GapTypeHTNACEARB,
		GapTypeBPControl,
	}
}

// IsValid checks if the gap type is known
func (t GapType) IsValid() bool {
	switch t {
	case GapTypeA1CThreshold,
		GapTypeHTNACEARB,
		GapTypeBPControl,
		GapTypeKidneyFunction,
		GapTypeStatin,
		GapTypeFootExam,
		GapTypeEyeExam:
		return true
	default:
		return false
	}
}

// String returns the string representation of the gap type
func (t GapType) String() string {
	return string(t)
}

// ParseGapType parses a string into a GapType
func ParseGapType(s string) (GapType, error) {
	t := GapType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid gap type: %s", s)
	}
	return t, nil
}
