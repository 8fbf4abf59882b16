package model

import (
	"fmt"
	"strings"

	"github.com/kmufti7/careflow/pkg/domain/types"
)

// GapResult is the outcome of one care-gap rule evaluation. Every result
// carries both a patient-side and a guideline-side citation so that no
// conclusion is ungrounded, including "rule does not apply" results.
type GapResult struct {
	GapType        types.GapType     `json:"gap_type"`
	GapDetected    bool              `json:"gap_detected"`
	PatientFact    map[string]any    `json:"patient_fact"`
	GuidelineFact  map[string]any    `json:"guideline_fact"`
	Comparison     string            `json:"comparison"`
	Therefore      string            `json:"therefore"`
	Recommendation string            `json:"recommendation"`
	Severity       types.Severity    `json:"severity"`
	GuidelineID    types.GuidelineID `json:"guideline_id"`
}

// PatientSource formats the patient-side provenance tag.
func PatientSource(patientID types.PatientID) string {
	return "PATIENT:" + patientID.String()
}

// GuidelineSource formats the guideline-side provenance tag.
func GuidelineSource(id string) string {
	return "GUIDE:" + id
}

// ReasoningResult is the aggregate evaluation for one patient. Gaps are in
// fixed rule order: A1C_THRESHOLD, HTN_ACE_ARB, BP_CONTROL.
type ReasoningResult struct {
	PatientID     types.PatientID     `json:"patient_id"`
	Gaps          []GapResult         `json:"gaps"`
	GapsFound     int                 `json:"gaps_found"`
	GapsClosed    int                 `json:"gaps_closed"`
	OverallStatus types.OverallStatus `json:"overall_status"`
}

// Detected returns only the gaps that were detected.
func (r *ReasoningResult) Detected() []GapResult {
	var out []GapResult
	for _, g := range r.Gaps {
		if g.GapDetected {
			out = append(out, g)
		}
	}
	return out
}

// Closed returns only the gaps that were not detected.
func (r *ReasoningResult) Closed() []GapResult {
	var out []GapResult
	for _, g := range r.Gaps {
		if !g.GapDetected {
			out = append(out, g)
		}
	}
	return out
}

// Summary renders a human-readable care-gap report.
func (r *ReasoningResult) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Patient %s - Care Gap Analysis\n", r.PatientID)
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")

	detected := r.Detected()
	closed := r.Closed()

	if len(detected) > 0 {
		fmt.Fprintf(&sb, "\nGAPS IDENTIFIED (%d):\n", len(detected))
		for _, gap := range detected {
			fmt.Fprintf(&sb, "\n  [%s] %s\n", strings.ToUpper(gap.Severity.String()), gap.GapType)
			fmt.Fprintf(&sb, "    Comparison: %s\n", gap.Comparison)
			fmt.Fprintf(&sb, "    %s\n", gap.Therefore)
			fmt.Fprintf(&sb, "    Recommendation: %s\n", gap.Recommendation)
		}
	} else {
		sb.WriteString("\nNo care gaps identified.\n")
	}

	if len(closed) > 0 {
		fmt.Fprintf(&sb, "\nGAPS CLOSED (%d):\n", len(closed))
		for _, gap := range closed {
			fmt.Fprintf(&sb, "  - %s: %s\n", gap.GapType, gap.Therefore)
		}
	}

	fmt.Fprintf(&sb, "\nOverall Status: %s\n", r.OverallStatus)

	return sb.String()
}
