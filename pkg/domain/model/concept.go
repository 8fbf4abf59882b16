package model

// ConceptQuery is a de-identified query bundle built from patient facts.
// QueryText contains only generic clinical concepts plus the fixed suffix
// "guidelines clinical recommendations" and must never contain numeric
// values, BP-shaped pairs, dates, or patient identifiers. The PHI safety
// validator re-checks this independently before any external call.
type ConceptQuery struct {
	QueryText string `json:"query_text"`

	// Concepts is the sorted, de-duplicated concept set behind QueryText.
	Concepts []string `json:"concepts"`

	// SourceConditions records which inputs contributed, one provenance tag
	// per input (diagnosis:/metric:/missing_med:/gap:). Audit only.
	SourceConditions []string `json:"source_conditions"`

	// IsPHISafe is true by construction; the validator is the enforcement.
	IsPHISafe bool `json:"is_phi_safe"`
}
