// Package planner turns a free-text clinical query into an ordered execution
// plan. Classification is keyword based and fully deterministic so the same
// question always produces the same plan.
package planner

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// Intent keyword tables. Booking wins over explanation, explanation over gap
// analysis; clinical vocabulary without any of those defaults to gap analysis.
var (
	bookingKeywords = []string{
		"book", "schedule", "appointment", "see a doctor",
		"refer", "referral", "follow up", "follow-up",
	}
	explanationKeywords = []string{
		"why", "explain", "tell me more", "what does",
		"how come", "reason", "because",
	}
	gapAnalysisKeywords = []string{
		"care gap", "gaps", "what's missing", "not at goal",
		"should be on", "recommend", "need to", "analyze",
	}
	clinicalKeywords = []string{
		"a1c", "hba1c", "hemoglobin", "glucose", "sugar",
		"blood pressure", "bp", "hypertension", "htn",
		"medication", "drug", "medicine", "lisinopril",
		"ace inhibitor", "arb", "metformin",
	}
)

// specialtyKeywords maps query vocabulary to the specialty a booking request
// most likely targets.
var specialtyKeywords = []struct {
	specialty types.Specialty
	keywords  []string
}{
	{types.SpecialtyEndocrinology, []string{"endocrin", "diabetes", "a1c", "thyroid"}},
	{types.SpecialtyCardiology, []string{"cardiol", "heart", "bp", "blood pressure", "hypertension"}},
	{types.SpecialtyNephrology, []string{"nephrol", "kidney", "renal", "ckd"}},
	{types.SpecialtyPrimaryCare, []string{"internal", "primary care", "general"}},
}

// Context tells the planner what has already been computed for the patient,
// so plans skip redundant steps.
type Context struct {
	PatientID types.PatientID
	HasFacts  bool
	HasGaps   bool
	// Detected gap types, used to infer a referral specialty when the query
	// does not name one.
	GapTypes []types.GapType
}

// Planner builds execution plans.
type Planner struct{}

// New creates a new planner
func New() *Planner {
	return &Planner{}
}

// CreatePlan classifies the query and builds the matching step plan.
func (p *Planner) CreatePlan(query string, pctx Context) *model.ExecutionPlan {
	// Random v4 prefix: a v7 prefix is timestamp bits and collides for
	// plans created close together.
	planID := uuid.New().String()[:8]
	intent := classifyIntent(query)

	switch intent {
	case types.IntentBooking:
		return p.planBooking(planID, query, pctx)
	case types.IntentExplanation:
		return p.planExplanation(planID, query, pctx)
	case types.IntentGapAnalysis:
		return p.planGapAnalysis(planID, query, pctx)
	default:
		return p.planGeneral(planID, query, pctx)
	}
}

func classifyIntent(query string) types.Intent {
	q := strings.ToLower(query)

	if matchesAny(q, bookingKeywords) {
		return types.IntentBooking
	}
	if matchesAny(q, explanationKeywords) {
		return types.IntentExplanation
	}
	if matchesAny(q, gapAnalysisKeywords) {
		return types.IntentGapAnalysis
	}
	if matchesAny(q, clinicalKeywords) {
		return types.IntentGapAnalysis
	}

	return types.IntentGeneral
}

func (p *Planner) planGapAnalysis(planID, query string, pctx Context) *model.ExecutionPlan {
	var steps []model.PlanStep
	num := 1

	if !pctx.HasFacts {
		steps = append(steps, model.PlanStep{
			Step:        num,
			Action:      types.ActionExtractFacts,
			Input:       "patient_note",
			Description: "Extract clinical facts from patient note using regex/LLM",
		})
		num++
	}

	steps = append(steps, model.PlanStep{
		Step:        num,
		Action:      types.ActionRetrieveGuidelines,
		Input:       "extracted_diagnoses",
		Description: "Search guideline index for relevant clinical guidelines",
	})
	num++

	if !pctx.HasGaps {
		steps = append(steps, model.PlanStep{
			Step:        num,
			Action:      types.ActionComputeGaps,
			Input:       "facts + guidelines",
			Description: "Apply deterministic rules to identify care gaps",
		})
		num++
	}

	steps = append(steps, model.PlanStep{
		Step:        num,
		Action:      types.ActionComposeResponse,
		Input:       "all_results",
		Description: "Generate natural language response with citations",
	})

	return &model.ExecutionPlan{
		PlanID:          planID,
		Query:           query,
		Intent:          types.IntentGapAnalysis,
		Steps:           steps,
		RequiresPatient: true,
		PatientID:       pctx.PatientID,
	}
}

func (p *Planner) planBooking(planID, query string, pctx Context) *model.ExecutionPlan {
	var steps []model.PlanStep
	num := 1

	specialty := inferSpecialty(query, pctx.GapTypes)

	if !pctx.HasFacts {
		steps = append(steps, model.PlanStep{
			Step:        num,
			Action:      types.ActionExtractFacts,
			Input:       "patient_note",
			Description: "Extract patient facts to determine appropriate specialty",
		})
		num++
	}

	if !pctx.HasGaps {
		steps = append(steps, model.PlanStep{
			Step:        num,
			Action:      types.ActionComputeGaps,
			Input:       "facts",
			Description: "Identify gaps to determine referral need",
		})
		num++
	}

	input := "auto_detect"
	target := "appropriate specialist"
	if specialty != "" {
		input = specialty.String()
		target = specialty.String()
	}
	steps = append(steps, model.PlanStep{
		Step:        num,
		Action:      types.ActionBookAppointment,
		Input:       input,
		Condition:   "if_gaps_detected",
		Description: fmt.Sprintf("Book appointment with %s", target),
	})
	num++

	steps = append(steps, model.PlanStep{
		Step:        num,
		Action:      types.ActionComposeResponse,
		Input:       "booking_result",
		Description: "Confirm booking details to user",
	})

	return &model.ExecutionPlan{
		PlanID:          planID,
		Query:           query,
		Intent:          types.IntentBooking,
		Steps:           steps,
		RequiresPatient: true,
		PatientID:       pctx.PatientID,
	}
}

func (p *Planner) planExplanation(planID, query string, pctx Context) *model.ExecutionPlan {
	var steps []model.PlanStep
	num := 1

	steps = append(steps, model.PlanStep{
		Step:        num,
		Action:      types.ActionRetrieveGuidelines,
		Input:       query,
		Description: "Find guidelines relevant to the explanation request",
	})
	num++

	if !pctx.HasGaps {
		steps = append(steps, model.PlanStep{
			Step:        num,
			Action:      types.ActionComputeGaps,
			Input:       "facts + guidelines",
			Description: "Compute gaps to provide context for explanation",
		})
		num++
	}

	steps = append(steps, model.PlanStep{
		Step:        num,
		Action:      types.ActionComposeResponse,
		Input:       "explanation_request",
		Description: "Generate detailed explanation with guideline citations",
	})

	return &model.ExecutionPlan{
		PlanID:          planID,
		Query:           query,
		Intent:          types.IntentExplanation,
		Steps:           steps,
		RequiresPatient: true,
		PatientID:       pctx.PatientID,
	}
}

func (p *Planner) planGeneral(planID, query string, pctx Context) *model.ExecutionPlan {
	steps := []model.PlanStep{
		{
			Step:        1,
			Action:      types.ActionComposeResponse,
			Input:       "general_query",
			Description: "Generate response using available patient context",
		},
	}

	return &model.ExecutionPlan{
		PlanID:          planID,
		Query:           query,
		Intent:          types.IntentGeneral,
		Steps:           steps,
		RequiresPatient: pctx.PatientID != "",
		PatientID:       pctx.PatientID,
	}
}

// inferSpecialty picks a referral specialty from the query vocabulary, then
// from the detected gaps.
func inferSpecialty(query string, gapTypes []types.GapType) types.Specialty {
	q := strings.ToLower(query)

	for _, entry := range specialtyKeywords {
		if matchesAny(q, entry.keywords) {
			return entry.specialty
		}
	}

	for _, gapType := range gapTypes {
		name := gapType.String()
		if strings.Contains(name, "A1C") {
			return types.SpecialtyEndocrinology
		}
		if strings.Contains(name, "HTN") || strings.Contains(name, "BP") {
			return types.SpecialtyCardiology
		}
	}

	return ""
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
