package types

import "fmt"

// RetrievalMode selects the guideline search backend. Local mode scans the
// in-process repository; cloud mode sends de-identified concept queries to the
// managed vector index and therefore passes the PHI safety gate first.
type RetrievalMode string

const (
	RetrievalLocal RetrievalMode = "local"
	RetrievalCloud RetrievalMode = "cloud"
)

// IsValid checks if the retrieval mode is valid
func (m RetrievalMode) IsValid() bool {
	switch m {
	case RetrievalLocal, RetrievalCloud:
		return true
	default:
		return false
	}
}

// RequiresPHIGate reports whether queries in this mode leave the trust boundary.
func (m RetrievalMode) RequiresPHIGate() bool {
	return m == RetrievalCloud
}

// String returns the string representation of the retrieval mode
func (m RetrievalMode) String() string {
	return string(m)
}

// ParseRetrievalMode parses a string into a RetrievalMode
func ParseRetrievalMode(s string) (RetrievalMode, error) {
	m := RetrievalMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid retrieval mode: %s", s)
	}
	return m, nil
}
