package model

import (
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// PlanStep is a single step in an execution plan.
type PlanStep struct {
	Step        int              `json:"step"`
	Action      types.ActionType `json:"action"`
	Input       string           `json:"input"`
	Condition   string           `json:"condition,omitempty"`
	Description string           `json:"description"`
}

// ExecutionPlan is an ordered list of steps the orchestrator will run for a
// user query.
type ExecutionPlan struct {
	PlanID          string          `json:"plan_id"`
	Query           string          `json:"query"`
	Intent          types.Intent    `json:"intent"`
	Steps           []PlanStep      `json:"steps"`
	RequiresPatient bool            `json:"requires_patient"`
	PatientID       types.PatientID `json:"patient_id,omitempty"`
}

// StepResult records the outcome of one executed plan step.
type StepResult struct {
	Step    int              `json:"step"`
	Action  types.ActionType `json:"action"`
	Success bool             `json:"success"`
	Skipped bool             `json:"skipped,omitempty"`
	Detail  string           `json:"detail,omitempty"`
}

// QueryResult is the aggregate result of processing one user query.
type QueryResult struct {
	PlanID     string               `json:"plan_id"`
	Intent     types.Intent         `json:"intent"`
	Steps      []StepResult         `json:"steps"`
	Facts      *ExtractedFacts      `json:"facts,omitempty"`
	Reasoning  *ReasoningResult     `json:"reasoning,omitempty"`
	Guidelines []RetrievedGuideline `json:"guidelines,omitempty"`
	Booking    *BookingResult       `json:"booking,omitempty"`
	Response   string               `json:"response"`
}
