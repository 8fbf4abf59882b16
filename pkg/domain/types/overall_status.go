package types

import "fmt"

// OverallStatus summarizes a full care-gap evaluation for a patient.
type OverallStatus string

const (
	StatusAllGapsClosed  OverallStatus = "all_gaps_closed"
	StatusGapsIdentified OverallStatus = "gaps_identified"
	StatusUrgentGaps     OverallStatus = "urgent_gaps_identified"
)

// IsValid checks if the overall status is valid
func (s OverallStatus) IsValid() bool {
	switch s {
	case StatusAllGapsClosed, StatusGapsIdentified, StatusUrgentGaps:
		return true
	default:
		return false
	}
}

// String returns the string representation of the overall status
func (s OverallStatus) String() string {
	return string(s)
}

// ParseOverallStatus parses a string into an OverallStatus
func ParseOverallStatus(s string) (OverallStatus, error) {
	status := OverallStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid overall status: %s", s)
	}
	return status, nil
}
