package reasoning

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// Guideline thresholds. These mirror the indexed guideline documents and
// must stay in sync with the seeded knowledge base.
const (
	A1CTarget         = 7.0
	BPSystolicTarget  = 140
	BPDiastolicTarget = 90

	a1cGuidelineID types.GuidelineID = "guideline_001_a1c_threshold"
	aceGuidelineID types.GuidelineID = "guideline_002_htn_ace_inhibitor"
	bpGuidelineID  types.GuidelineID = "guideline_004_bp_target"
)

var aceInhibitors = []string{
	"lisinopril", "enalapril", "ramipril", "benazepril",
	"captopril", "fosinopril", "moexipril", "perindopril",
	"quinapril", "trandolapril",
}

var arbs = []string{
	"losartan", "valsartan", "irbesartan", "candesartan",
	"olmesartan", "telmisartan", "azilsartan", "eprosartan",
}

// formatA1C renders an A1C value with at least one decimal place, so that
// 8.0 reads as "8.0" and 8.25 as "8.25".
func formatA1C(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CheckA1CThreshold detects an A1C above target. The rule is gated on a
// diabetes diagnosis: non-diabetic patients get a "does not apply" result.
// A diabetic patient with no A1C on record is itself a gap (testing overdue).
func CheckA1CThreshold(facts *model.ExtractedFacts, patientID types.PatientID) model.GapResult {
	if !facts.HasDiagnosis("diabetes") {
		return model.GapResult{
			GapType:     types.GapTypeA1CThreshold,
			GapDetected: false,
			PatientFact: map[string]any{
				"has_diabetes": false,
				"source":       model.PatientSource(patientID),
			},
			GuidelineFact: map[string]any{
				"applies_to": "diabetic patients",
				"source":     model.GuidelineSource("001"),
			},
			Comparison:     "Patient does not have diabetes diagnosis",
			Therefore:      "A1C threshold rule does not apply to non-diabetic patients.",
			Recommendation: "No action needed for A1C.",
			Severity:       types.SeverityLow,
			GuidelineID:    a1cGuidelineID,
		}
	}

	if facts.A1C == nil {
		return model.GapResult{
			GapType:     types.GapTypeA1CThreshold,
			GapDetected: true,
			PatientFact: map[string]any{
				"a1c":    nil,
				"source": model.PatientSource(patientID),
			},
			GuidelineFact: map[string]any{
				"threshold": A1CTarget,
				"source":    model.GuidelineSource("001"),
			},
			Comparison:     "A1C value not found in patient record",
			Therefore:      "Therefore, A1C status cannot be determined. Testing may be overdue.",
			Recommendation: "Order A1C test to assess glycemic control.",
			Severity:       types.SeverityModerate,
			GuidelineID:    a1cGuidelineID,
		}
	}

	a1c := *facts.A1C

	if a1c >= A1CTarget {
		var severity types.Severity
		var rec string
		switch {
		case a1c >= 9.0:
			severity = types.SeverityHigh
			rec = "Urgent treatment intensification needed. Consider adding second agent or insulin."
		case a1c >= 8.0:
			severity = types.SeverityModerate
			rec = "Consider adding second diabetes agent or adjusting current regimen."
		default:
			severity = types.SeverityLow
			rec = "Monitor closely. Reinforce lifestyle modifications and medication adherence."
		}

		return model.GapResult{
			GapType:     types.GapTypeA1CThreshold,
			GapDetected: true,
			PatientFact: map[string]any{
				"a1c":    a1c,
				"source": model.PatientSource(patientID),
			},
			GuidelineFact: map[string]any{
				"threshold": A1CTarget,
				"source":    model.GuidelineSource("001"),
			},
			Comparison:     fmt.Sprintf("%s%% >= %s%%", formatA1C(a1c), formatA1C(A1CTarget)),
			Therefore:      fmt.Sprintf("Therefore, A1C of %s%% is above the target of %s%%.", formatA1C(a1c), formatA1C(A1CTarget)),
			Recommendation: rec,
			Severity:       severity,
			GuidelineID:    a1cGuidelineID,
		}
	}

	return model.GapResult{
		GapType:     types.GapTypeA1CThreshold,
		GapDetected: false,
		PatientFact: map[string]any{
			"a1c":    a1c,
			"source": model.PatientSource(patientID),
		},
		GuidelineFact: map[string]any{
			"threshold": A1CTarget,
			"source":    model.GuidelineSource("001"),
		},
		Comparison:     fmt.Sprintf("%s%% < %s%%", formatA1C(a1c), formatA1C(A1CTarget)),
		Therefore:      fmt.Sprintf("Therefore, A1C of %s%% is at goal (target < %s%%).", formatA1C(a1c), formatA1C(A1CTarget)),
		Recommendation: "Continue current diabetes management. Maintain lifestyle modifications.",
		Severity:       types.SeverityLow,
		GuidelineID:    a1cGuidelineID,
	}
}

// CheckHTNACEARB detects a patient with both diabetes and hypertension who
// is not on an ACE inhibitor or ARB. Medication matching is substring-based
// against lowercase names, so dosage suffixes do not interfere. A detected
// gap is always high severity: renal protection is at stake.
func CheckHTNACEARB(facts *model.ExtractedFacts, patientID types.PatientID) model.GapResult {
	hasDiabetes := facts.HasDiagnosis("diabetes")
	hasHTN := facts.HasDiagnosis("hypertension")

	if !hasDiabetes || !hasHTN {
		var missing []string
		if !hasDiabetes {
			missing = append(missing, "diabetes")
		}
		if !hasHTN {
			missing = append(missing, "hypertension")
		}

		return model.GapResult{
			GapType:     types.GapTypeHTNACEARB,
			GapDetected: false,
			PatientFact: map[string]any{
				"has_diabetes": hasDiabetes,
				"has_htn":      hasHTN,
				"source":       model.PatientSource(patientID),
			},
			GuidelineFact: map[string]any{
				"requires": "diabetes AND hypertension",
				"source":   model.GuidelineSource("002"),
			},
			Comparison:     "Patient missing: " + strings.Join(missing, ", "),
			Therefore:      "ACE/ARB requirement rule does not apply - patient does not have both diabetes and hypertension.",
			Recommendation: "No action needed for ACE/ARB based on current diagnoses.",
			Severity:       types.SeverityLow,
			GuidelineID:    aceGuidelineID,
		}
	}

	foundMed, medType := findACEorARB(facts.Medications)

	if foundMed != "" {
		return model.GapResult{
			GapType:     types.GapTypeHTNACEARB,
			GapDetected: false,
			PatientFact: map[string]any{
				"has_diabetes": true,
				"has_htn":      true,
				"on_ace_arb":   true,
				"medication":   foundMed,
				"source":       model.PatientSource(patientID),
			},
			GuidelineFact: map[string]any{
				"requires": "ACE inhibitor or ARB for DM + HTN",
				"source":   model.GuidelineSource("002"),
			},
			Comparison:     fmt.Sprintf("HTN present AND %s (%s) present", medType, foundMed),
			Therefore:      fmt.Sprintf("Therefore, patient is appropriately on %s therapy for diabetes with hypertension.", medType),
			Recommendation: "Continue current ACE/ARB therapy. Monitor potassium and creatinine.",
			Severity:       types.SeverityLow,
			GuidelineID:    aceGuidelineID,
		}
	}

	return model.GapResult{
		GapType:     types.GapTypeHTNACEARB,
		GapDetected: true,
		PatientFact: map[string]any{
			"has_diabetes": true,
			"has_htn":      true,
			"on_ace_arb":   false,
			"current_meds": facts.Medications,
			"source":       model.PatientSource(patientID),
		},
		GuidelineFact: map[string]any{
			"requires": "ACE inhibitor or ARB for DM + HTN",
			"source":   model.GuidelineSource("002"),
		},
		Comparison:     "HTN present AND ACE/ARB absent",
		Therefore:      "Therefore, patient with diabetes and hypertension is NOT on recommended ACE inhibitor or ARB therapy.",
		Recommendation: "Initiate ACE inhibitor (e.g., Lisinopril 5-10mg daily) unless contraindicated. Provides BP control and renal protection.",
		Severity:       types.SeverityHigh,
		GuidelineID:    aceGuidelineID,
	}
}

// findACEorARB returns the first medication matching a known ACE inhibitor
// or ARB name, with ACE inhibitors checked first.
func findACEorARB(medications []string) (found, medType string) {
	for _, med := range medications {
		lower := strings.ToLower(med)
		for _, ace := range aceInhibitors {
			if strings.Contains(lower, ace) {
				return med, "ACE inhibitor"
			}
		}
		for _, arb := range arbs {
			if strings.Contains(lower, arb) {
				return med, "ARB"
			}
		}
	}
	return "", ""
}

// CheckBPControl detects an uncontrolled blood pressure in a hypertensive
// patient. A hypertensive patient with no BP reading on record is a gap.
func CheckBPControl(facts *model.ExtractedFacts, patientID types.PatientID) model.GapResult {
	if !facts.HasDiagnosis("hypertension") {
		return model.GapResult{
			GapType:     types.GapTypeBPControl,
			GapDetected: false,
			PatientFact: map[string]any{
				"has_htn": false,
				"source":  model.PatientSource(patientID),
			},
			GuidelineFact: map[string]any{
				"applies_to": "hypertensive patients",
				"source":     model.GuidelineSource("004"),
			},
			Comparison:     "Patient does not have hypertension diagnosis",
			Therefore:      "BP control rule does not apply to non-hypertensive patients.",
			Recommendation: "No action needed for BP control.",
			Severity:       types.SeverityLow,
			GuidelineID:    bpGuidelineID,
		}
	}

	if facts.BloodPressure == nil {
		return model.GapResult{
			GapType:     types.GapTypeBPControl,
			GapDetected: true,
			PatientFact: map[string]any{
				"bp":     nil,
				"source": model.PatientSource(patientID),
			},
			GuidelineFact: map[string]any{
				"systolic_target":  BPSystolicTarget,
				"diastolic_target": BPDiastolicTarget,
				"source":           model.GuidelineSource("004"),
			},
			Comparison:     "BP value not found in patient record",
			Therefore:      "Therefore, BP status cannot be determined.",
			Recommendation: "Check blood pressure at next visit.",
			Severity:       types.SeverityModerate,
			GuidelineID:    bpGuidelineID,
		}
	}

	systolic := facts.BloodPressure.Systolic
	diastolic := facts.BloodPressure.Diastolic

	if systolic >= BPSystolicTarget || diastolic >= BPDiastolicTarget {
		var severity types.Severity
		var rec string
		switch {
		case systolic >= 160 || diastolic >= 100:
			severity = types.SeverityHigh
			rec = "Significant hypertension. Consider adding/adjusting antihypertensive medications urgently."
		case systolic >= 140 || diastolic >= 90:
			severity = types.SeverityModerate
			rec = "Consider intensifying antihypertensive therapy. Reinforce lifestyle modifications."
		default:
			// Unreachable given the detection condition above; kept so the
			// severity ladder reads the same as the other rules.
			severity = types.SeverityLow
			rec = "Monitor BP closely. Reinforce dietary sodium restriction and exercise."
		}

		return model.GapResult{
			GapType:     types.GapTypeBPControl,
			GapDetected: true,
			PatientFact: map[string]any{
				"bp":        fmt.Sprintf("%d/%d", systolic, diastolic),
				"systolic":  systolic,
				"diastolic": diastolic,
				"source":    model.PatientSource(patientID),
			},
			GuidelineFact: map[string]any{
				"systolic_target":  BPSystolicTarget,
				"diastolic_target": BPDiastolicTarget,
				"source":           model.GuidelineSource("004"),
			},
			Comparison:     fmt.Sprintf("%d/%d >= %d/%d", systolic, diastolic, BPSystolicTarget, BPDiastolicTarget),
			Therefore:      fmt.Sprintf("Therefore, BP of %d/%d mmHg is above target of <%d/%d mmHg.", systolic, diastolic, BPSystolicTarget, BPDiastolicTarget),
			Recommendation: rec,
			Severity:       severity,
			GuidelineID:    bpGuidelineID,
		}
	}

	return model.GapResult{
		GapType:     types.GapTypeBPControl,
		GapDetected: false,
		PatientFact: map[string]any{
			"bp":        fmt.Sprintf("%d/%d", systolic, diastolic),
			"systolic":  systolic,
			"diastolic": diastolic,
			"source":    model.PatientSource(patientID),
		},
		GuidelineFact: map[string]any{
			"systolic_target":  BPSystolicTarget,
			"diastolic_target": BPDiastolicTarget,
			"source":           model.GuidelineSource("004"),
		},
		Comparison:     fmt.Sprintf("%d/%d < %d/%d", systolic, diastolic, BPSystolicTarget, BPDiastolicTarget),
		Therefore:      fmt.Sprintf("Therefore, BP of %d/%d mmHg is at goal (target <%d/%d mmHg).", systolic, diastolic, BPSystolicTarget, BPDiastolicTarget),
		Recommendation: "Continue current antihypertensive regimen. Maintain lifestyle modifications.",
		Severity:       types.SeverityLow,
		GuidelineID:    bpGuidelineID,
	}
}
