package types

import "fmt"

// ExtractionMethod records which pipeline produced an ExtractedFacts record.
type ExtractionMethod string

const (
	ExtractionRegex     ExtractionMethod = "regex"
	ExtractionLLM       ExtractionMethod = "llm"
	ExtractionLLMFailed ExtractionMethod = "llm_failed"
	ExtractionHybrid    ExtractionMethod = "regex+llm"
)

// IsValid checks if the extraction method is valid
func (m ExtractionMethod) IsValid() bool {
	switch m {
	case ExtractionRegex, ExtractionLLM, ExtractionLLMFailed, ExtractionHybrid:
		return true
	default:
		return false
	}
}

// String returns the string representation of the extraction method
func (m ExtractionMethod) String() string {
	return string(m)
}

// ParseExtractionMethod parses a string into an ExtractionMethod
func ParseExtractionMethod(s string) (ExtractionMethod, error) {
	m := ExtractionMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid extraction method: %s", s)
	}
	return m, nil
}
