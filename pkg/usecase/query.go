package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/service/booking"
	"github.com/kmufti7/careflow/pkg/service/planner"
	"github.com/kmufti7/careflow/pkg/utils/logging"
)

// QueryInput carries a user query plus whatever has already been computed for
// the patient, so the planner can skip redundant steps.
type QueryInput struct {
	Query     string
	PatientID types.PatientID
	Facts     *model.ExtractedFacts
	Reasoning *model.ReasoningResult
}

const noPatientResponse = "Please select a patient before asking clinical questions."

// ProcessQuery plans and executes the steps needed to answer a clinical
// query. Step failures are captured in the result; only infrastructure
// errors (repository, audit-independent) surface as errors.
func (uc *UseCases) ProcessQuery(ctx context.Context, input QueryInput) (*model.QueryResult, error) {
	var gapTypes []types.GapType
	if input.Reasoning != nil {
		for _, gap := range input.Reasoning.Detected() {
			gapTypes = append(gapTypes, gap.GapType)
		}
	}

	plan := uc.planner.CreatePlan(input.Query, planner.Context{
		PatientID: input.PatientID,
		HasFacts:  input.Facts != nil,
		HasGaps:   input.Reasoning != nil,
		GapTypes:  gapTypes,
	})

	uc.audit(ctx, input.PatientID, "Planner", "plan_created", true,
		fmt.Sprintf("intent=%s steps=%d", plan.Intent, len(plan.Steps)))

	result := &model.QueryResult{
		PlanID:    plan.PlanID,
		Intent:    plan.Intent,
		Facts:     input.Facts,
		Reasoning: input.Reasoning,
	}

	if plan.RequiresPatient && input.PatientID == "" {
		result.Response = noPatientResponse
		return result, nil
	}

	for _, step := range plan.Steps {
		stepResult := uc.executeStep(ctx, step, input.PatientID, result)
		result.Steps = append(result.Steps, stepResult)

		uc.audit(ctx, input.PatientID, "Orchestrator", step.Action.String(), stepResult.Success, stepResult.Detail)

		// A failed booking is a domain outcome the response can explain;
		// any other failure leaves nothing for later steps to work with.
		if !stepResult.Success && !stepResult.Skipped && step.Action != types.ActionBookAppointment {
			if result.Response == "" {
				result.Response = fmt.Sprintf("Unable to complete the request: %s", stepResult.Detail)
			}
			break
		}
	}

	return result, nil
}

func (uc *UseCases) executeStep(ctx context.Context, step model.PlanStep, patientID types.PatientID, result *model.QueryResult) model.StepResult {
	stepResult := model.StepResult{
		Step:   step.Step,
		Action: step.Action,
	}

	switch step.Action {
	case types.ActionExtractFacts:
		note, err := uc.repo.Note().Latest(ctx, patientID)
		if err != nil {
			stepResult.Detail = fmt.Sprintf("No notes found for patient %s", patientID)
			return stepResult
		}
		result.Facts = uc.extractor.Extract(ctx, note.Text)
		stepResult.Success = true
		stepResult.Detail = fmt.Sprintf("method=%s confidence=%.2f", result.Facts.ExtractionMethod, result.Facts.Confidence)

	case types.ActionRetrieveGuidelines:
		if uc.retriever == nil {
			stepResult.Skipped = true
			stepResult.Detail = "guideline retrieval not configured"
			return stepResult
		}
		search, err := uc.searchGuidelines(ctx, step.Input, result)
		if err != nil {
			stepResult.Detail = err.Error()
			return stepResult
		}
		for _, g := range search.Guidelines {
			result.Guidelines = append(result.Guidelines, *g)
		}
		stepResult.Success = true
		stepResult.Detail = fmt.Sprintf("found %d guidelines via %s", len(search.Guidelines), search.Source)

	case types.ActionComputeGaps:
		if result.Facts == nil {
			note, err := uc.repo.Note().Latest(ctx, patientID)
			if err != nil {
				stepResult.Detail = "Could not extract patient facts"
				return stepResult
			}
			result.Facts = uc.extractor.Extract(ctx, note.Text)
		}
		result.Reasoning = uc.engine.Evaluate(result.Facts, patientID)
		stepResult.Success = true
		stepResult.Detail = fmt.Sprintf("%d gaps found, status: %s", result.Reasoning.GapsFound, result.Reasoning.OverallStatus)

	case types.ActionBookAppointment:
		return uc.executeBookingStep(ctx, step, patientID, result)

	case types.ActionComposeResponse:
		result.Response = uc.composeResponse(ctx, result)
		stepResult.Success = true
		stepResult.Detail = fmt.Sprintf("response length %d", len(result.Response))

	default:
		stepResult.Detail = fmt.Sprintf("unknown action: %s", step.Action)
	}

	return stepResult
}

// searchGuidelines prefers the PHI-safe concept path over the raw plan input.
func (uc *UseCases) searchGuidelines(ctx context.Context, fallbackQuery string, result *model.QueryResult) (*guidelineSearch, error) {
	if result.Facts != nil {
		search, err := uc.retriever.SearchWithFacts(ctx, result.Facts, 0)
		if err != nil {
			return nil, err
		}
		return &guidelineSearch{Guidelines: search.Guidelines, Source: search.Source}, nil
	}

	search, err := uc.retriever.SearchRaw(ctx, fallbackQuery, 0)
	if err != nil {
		return nil, err
	}
	return &guidelineSearch{Guidelines: search.Guidelines, Source: search.Source}, nil
}

type guidelineSearch struct {
	Guidelines []*model.RetrievedGuideline
	Source     string
}

func (uc *UseCases) executeBookingStep(ctx context.Context, step model.PlanStep, patientID types.PatientID, result *model.QueryResult) model.StepResult {
	stepResult := model.StepResult{
		Step:   step.Step,
		Action: step.Action,
	}

	if step.Condition == "if_gaps_detected" && result.Reasoning != nil && len(result.Reasoning.Detected()) == 0 {
		stepResult.Success = true
		stepResult.Skipped = true
		stepResult.Detail = "No gaps detected, booking not needed"
		return stepResult
	}

	specialty, reason := uc.resolveBookingTarget(step.Input, result.Reasoning)

	bookingResult, err := uc.booking.BookAppointment(ctx, patientID, specialty, reason, "")
	if err != nil {
		stepResult.Detail = err.Error()
		return stepResult
	}

	result.Booking = bookingResult
	stepResult.Success = bookingResult.Success
	stepResult.Detail = bookingResult.Message
	return stepResult
}

// resolveBookingTarget turns the plan's specialty input into a concrete
// specialty and referral reason. "auto_detect" follows the highest-severity
// detected gap.
func (uc *UseCases) resolveBookingTarget(input string, reasoningResult *model.ReasoningResult) (types.Specialty, string) {
	if input != "auto_detect" {
		specialty := types.Specialty(input)
		return specialty, fmt.Sprintf("Follow-up for %s", specialty)
	}

	if reasoningResult != nil {
		detected := reasoningResult.Detected()
		if len(detected) > 0 {
			top := detected[0]
			for _, gap := range detected[1:] {
				if severityRank(gap.Severity) > severityRank(top.Severity) {
					top = gap
				}
			}
			specialty, ok := booking.GapToSpecialty[top.GapType]
			if !ok {
				specialty = types.SpecialtyPrimaryCare
			}
			return specialty, fmt.Sprintf("Care gap follow-up: %s", top.GapType)
		}
	}

	return types.SpecialtyPrimaryCare, "General follow-up"
}

func severityRank(s types.Severity) int {
	for i, sev := range types.AllSeverities() {
		if sev == s {
			return i
		}
	}
	return -1
}

const composeSystemPrompt = `You are a clinical decision support assistant.
Your role is to explain care gaps and clinical findings to healthcare providers.

Guidelines:
1. Be concise but thorough
2. Always cite evidence: "[PATIENT: value]" and "[GUIDELINE: id]"
3. Structure responses clearly with findings, reasoning, and recommendations
4. Use clinical terminology appropriately
5. If an appointment was booked, confirm the details

Example citation format:
"The patient's A1C of 8.2% [PATIENT: A1C=8.2%] exceeds the target of <7.0% [GUIDELINE: guideline_001_a1c_threshold]."`

// composeResponse renders the final answer. The LLM path is best-effort:
// any failure falls back to the deterministic summary.
func (uc *UseCases) composeResponse(ctx context.Context, result *model.QueryResult) string {
	if uc.llmClient == nil {
		return fallbackResponse(result)
	}

	response, err := uc.composeWithLLM(ctx, result)
	if err != nil {
		logging.From(ctx).Warn("LLM response composition failed, using fallback", "error", err)
		return fallbackResponse(result)
	}
	return response
}

func (uc *UseCases) composeWithLLM(ctx context.Context, result *model.QueryResult) (string, error) {
	session, err := uc.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(composeSystemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	prompt := fmt.Sprintf(`Based on the following clinical context, respond to the question.

CLINICAL CONTEXT:
%s

Provide a helpful, evidence-based response with proper citations.`, composeContext(result))

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate response")
	}
	if len(resp.Texts) == 0 || resp.Texts[0] == "" {
		return "", goerr.New("empty LLM response")
	}

	return resp.Texts[0], nil
}

// composeContext assembles the de-structured evidence block handed to the
// LLM. Only derived facts and guideline snippets appear here, never the raw
// note text.
func composeContext(result *model.QueryResult) string {
	var sb strings.Builder

	if facts := result.Facts; facts != nil {
		sb.WriteString("PATIENT FACTS:\n")
		if facts.A1C != nil {
			fmt.Fprintf(&sb, "- A1C: %.1f%%\n", *facts.A1C)
		}
		if facts.BloodPressure != nil {
			fmt.Fprintf(&sb, "- Blood Pressure: %d/%d\n", facts.BloodPressure.Systolic, facts.BloodPressure.Diastolic)
		}
		fmt.Fprintf(&sb, "- Diagnoses: %s\n", strings.Join(facts.Diagnoses, ", "))
		fmt.Fprintf(&sb, "- Medications: %s\n", strings.Join(facts.Medications, ", "))
		fmt.Fprintf(&sb, "- Extraction Method: %s (confidence: %.0f%%)\n\n", facts.ExtractionMethod, facts.Confidence*100)
	}

	if rr := result.Reasoning; rr != nil {
		fmt.Fprintf(&sb, "CARE GAP ANALYSIS:\n- Gaps Found: %d\n- Gaps Closed: %d\n- Status: %s\n\n",
			rr.GapsFound, rr.GapsClosed, rr.OverallStatus)

		if detected := rr.Detected(); len(detected) > 0 {
			sb.WriteString("DETECTED GAPS:\n")
			for _, gap := range detected {
				fmt.Fprintf(&sb, "[%s] %s\n- Comparison: %s\n- %s\n- Recommendation: %s\n- Guideline: %s\n\n",
					strings.ToUpper(gap.Severity.String()), gap.GapType,
					gap.Comparison, gap.Therefore, gap.Recommendation, gap.GuidelineID)
			}
		}

		if closed := rr.Closed(); len(closed) > 0 {
			sb.WriteString("CLOSED GAPS:\n")
			for _, gap := range closed {
				fmt.Fprintf(&sb, "- %s: %s\n", gap.GapType, gap.Therefore)
			}
			sb.WriteString("\n")
		}
	}

	if len(result.Guidelines) > 0 {
		sb.WriteString("RELEVANT GUIDELINES:\n")
		for _, g := range result.Guidelines {
			preview := g.Guideline.Text
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			fmt.Fprintf(&sb, "- %s: %s\n", g.Guideline.ID, preview)
		}
		sb.WriteString("\n")
	}

	if br := result.Booking; br != nil && br.Success {
		fmt.Fprintf(&sb, "APPOINTMENT BOOKED:\n- Doctor: %s (%s)\n- Date/Time: %s\n- Reason: %s\n",
			br.DoctorName, br.Specialty, br.StartsAt.Format("January 2, 2006 at 3:04 PM"), br.Reason)
	}

	return sb.String()
}

// fallbackResponse is the deterministic rendition used when no LLM is
// configured or the LLM call fails.
func fallbackResponse(result *model.QueryResult) string {
	var parts []string

	if rr := result.Reasoning; rr != nil {
		detected := rr.Detected()
		if len(detected) > 0 {
			parts = append(parts, fmt.Sprintf("**Care Gaps Identified (%d):**\n", len(detected)))
			for _, gap := range detected {
				parts = append(parts, fmt.Sprintf("- **%s** [%s]", gap.GapType, strings.ToUpper(gap.Severity.String())))
				parts = append(parts, fmt.Sprintf("  - %s", gap.Therefore))
				parts = append(parts, fmt.Sprintf("  - Recommendation: %s\n", gap.Recommendation))
			}
		} else {
			parts = append(parts, "**No care gaps identified.** All evaluated criteria are met.\n")
		}
	}

	if br := result.Booking; br != nil && br.Success {
		parts = append(parts, "\n**Appointment Scheduled:**")
		parts = append(parts, fmt.Sprintf("- %s (%s)", br.DoctorName, br.Specialty))
		parts = append(parts, fmt.Sprintf("- %s", br.StartsAt.Format("January 2, 2006 at 3:04 PM")))
	}

	if len(parts) == 0 {
		return "Analysis complete. Please see the care gap report."
	}
	return strings.Join(parts, "\n")
}
