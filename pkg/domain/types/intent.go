package types

// Intent classifies a user query for the planner.
type Intent string

const (
	IntentGapAnalysis Intent = "gap_analysis"
	IntentBooking     Intent = "booking"
	IntentExplanation Intent = "explanation"
	IntentGeneral     Intent = "general"
)

// String returns the string representation of the intent
func (i Intent) String() string {
	return string(i)
}

// ActionType identifies a step in an execution plan.
type ActionType string

const (
	ActionExtractFacts       ActionType = "extract_patient_facts"
	ActionRetrieveGuidelines ActionType = "retrieve_guidelines"
	ActionComputeGaps        ActionType = "compute_gaps"
	ActionBookAppointment    ActionType = "book_appointment"
	ActionComposeResponse    ActionType = "compose_response"
)

// String returns the string representation of the action type
func (a ActionType) String() string {
	return string(a)
}
