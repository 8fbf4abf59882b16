package reasoning_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/service/reasoning"
)

func f64(v float64) *float64 {
	return &v
}

func diabeticHTNFacts(a1c float64, sys, dia int, meds ...string) *model.ExtractedFacts {
	return &model.ExtractedFacts{
		A1C:           f64(a1c),
		BloodPressure: &model.BloodPressure{Systolic: sys, Diastolic: dia},
		Diagnoses:     []string{"Type 2 Diabetes Mellitus", "Essential Hypertension"},
		Medications:   meds,
	}
}

func TestCheckA1CThreshold(t *testing.T) {
	t.Run("not applicable without diabetes diagnosis", func(t *testing.T) {
		facts := &model.ExtractedFacts{
			A1C:       f64(9.5),
			Diagnoses: []string{"Essential Hypertension"},
		}

		gap := reasoning.CheckA1CThreshold(facts, "PT001")
		gt.Bool(t, gap.GapDetected).False()
		gt.Value(t, gap.Severity).Equal(types.SeverityLow)
		gt.Value(t, gap.Comparison).Equal("Patient does not have diabetes diagnosis")
	})

	t.Run("missing A1C in diabetic is a gap", func(t *testing.T) {
		facts := &model.ExtractedFacts{
			Diagnoses: []string{"Type 2 Diabetes Mellitus"},
		}

		gap := reasoning.CheckA1CThreshold(facts, "PT001")
		gt.Bool(t, gap.GapDetected).True()
		gt.Value(t, gap.Severity).Equal(types.SeverityModerate)
		gt.Value(t, gap.Recommendation).Equal("Order A1C test to assess glycemic control.")
	})

	t.Run("boundary value 7.0 is detected", func(t *testing.T) {
		facts := diabeticHTNFacts(7.0, 120, 80)

		gap := reasoning.CheckA1CThreshold(facts, "PT001")
		gt.Bool(t, gap.GapDetected).True()
		gt.Value(t, gap.Severity).Equal(types.SeverityLow)
		gt.Value(t, gap.Comparison).Equal("7.0% >= 7.0%")
	})

	t.Run("6.9 is at goal", func(t *testing.T) {
		facts := diabeticHTNFacts(6.9, 120, 80)

		gap := reasoning.CheckA1CThreshold(facts, "PT001")
		gt.Bool(t, gap.GapDetected).False()
		gt.Value(t, gap.Therefore).Equal("Therefore, A1C of 6.9% is at goal (target < 7.0%).")
	})

	t.Run("severity ladder", func(t *testing.T) {
		cases := []struct {
			a1c  float64
			want types.Severity
		}{
			{9.0, types.SeverityHigh},
			{9.8, types.SeverityHigh},
			{8.0, types.SeverityModerate},
			{8.9, types.SeverityModerate},
			{7.0, types.SeverityLow},
			{7.9, types.SeverityLow},
		}

		for _, tc := range cases {
			gap := reasoning.CheckA1CThreshold(diabeticHTNFacts(tc.a1c, 120, 80), "PT001")
			gt.Bool(t, gap.GapDetected).True()
			gt.Value(t, gap.Severity).Equal(tc.want)
		}
	})

	t.Run("patient fact carries provenance tag", func(t *testing.T) {
		gap := reasoning.CheckA1CThreshold(diabeticHTNFacts(8.2, 120, 80), "PT001")
		gt.Value(t, gap.PatientFact["source"]).Equal("PATIENT:PT001")
		gt.Value(t, gap.GuidelineFact["source"]).Equal("GUIDE:001")
	})
}

func TestCheckHTNACEARB(t *testing.T) {
	t.Run("not applicable without both diagnoses", func(t *testing.T) {
		facts := &model.ExtractedFacts{
			Diagnoses: []string{"Type 2 Diabetes Mellitus"},
		}

		gap := reasoning.CheckHTNACEARB(facts, "PT001")
		gt.Bool(t, gap.GapDetected).False()
		gt.Value(t, gap.Comparison).Equal("Patient missing: hypertension")
	})

	t.Run("ACE inhibitor closes the gap", func(t *testing.T) {
		facts := diabeticHTNFacts(6.5, 120, 80, "Lisinopril 10mg daily")

		gap := reasoning.CheckHTNACEARB(facts, "PT001")
		gt.Bool(t, gap.GapDetected).False()
		gt.Value(t, gap.Comparison).Equal("HTN present AND ACE inhibitor (Lisinopril 10mg daily) present")
	})

	t.Run("ARB closes the gap", func(t *testing.T) {
		facts := diabeticHTNFacts(6.5, 120, 80, "Losartan 50mg daily")

		gap := reasoning.CheckHTNACEARB(facts, "PT001")
		gt.Bool(t, gap.GapDetected).False()
		gt.Value(t, gap.Therefore).Equal("Therefore, patient is appropriately on ARB therapy for diabetes with hypertension.")
	})

	t.Run("matching is case-insensitive substring", func(t *testing.T) {
		facts := diabeticHTNFacts(6.5, 120, 80, "LISINOPRIL 20MG QD")

		gap := reasoning.CheckHTNACEARB(facts, "PT001")
		gt.Bool(t, gap.GapDetected).False()
	})

	t.Run("missing ACE/ARB is always high severity", func(t *testing.T) {
		facts := diabeticHTNFacts(6.5, 118, 76, "Metformin 1000mg BID", "Amlodipine 5mg daily")

		gap := reasoning.CheckHTNACEARB(facts, "PT001")
		gt.Bool(t, gap.GapDetected).True()
		gt.Value(t, gap.Severity).Equal(types.SeverityHigh)
		gt.Value(t, gap.Comparison).Equal("HTN present AND ACE/ARB absent")
	})
}

func TestCheckBPControl(t *testing.T) {
	t.Run("not applicable without hypertension diagnosis", func(t *testing.T) {
		facts := &model.ExtractedFacts{
			BloodPressure: &model.BloodPressure{Systolic: 170, Diastolic: 110},
			Diagnoses:     []string{"Type 2 Diabetes Mellitus"},
		}

		gap := reasoning.CheckBPControl(facts, "PT001")
		gt.Bool(t, gap.GapDetected).False()
	})

	t.Run("missing reading in hypertensive is a gap", func(t *testing.T) {
		facts := &model.ExtractedFacts{
			Diagnoses: []string{"Essential Hypertension"},
		}

		gap := reasoning.CheckBPControl(facts, "PT001")
		gt.Bool(t, gap.GapDetected).True()
		gt.Value(t, gap.Severity).Equal(types.SeverityModerate)
		gt.Value(t, gap.Therefore).Equal("Therefore, BP status cannot be determined.")
	})

	t.Run("boundary 140/90 is detected as moderate", func(t *testing.T) {
		gap := reasoning.CheckBPControl(diabeticHTNFacts(6.5, 140, 90), "PT001")
		gt.Bool(t, gap.GapDetected).True()
		gt.Value(t, gap.Severity).Equal(types.SeverityModerate)
		gt.Value(t, gap.Comparison).Equal("140/90 >= 140/90")
	})

	t.Run("either component over 160/100 is high", func(t *testing.T) {
		for _, bp := range [][2]int{{162, 88}, {150, 104}, {160, 100}} {
			gap := reasoning.CheckBPControl(diabeticHTNFacts(6.5, bp[0], bp[1]), "PT001")
			gt.Bool(t, gap.GapDetected).True()
			gt.Value(t, gap.Severity).Equal(types.SeverityHigh)
		}
	})

	t.Run("139/89 is at goal", func(t *testing.T) {
		gap := reasoning.CheckBPControl(diabeticHTNFacts(6.5, 139, 89), "PT001")
		gt.Bool(t, gap.GapDetected).False()
		gt.Value(t, gap.Therefore).Equal("Therefore, BP of 139/89 mmHg is at goal (target <140/90 mmHg).")
	})

	t.Run("elevated diastolic alone is detected", func(t *testing.T) {
		gap := reasoning.CheckBPControl(diabeticHTNFacts(6.5, 128, 94), "PT001")
		gt.Bool(t, gap.GapDetected).True()
		gt.Value(t, gap.Severity).Equal(types.SeverityModerate)
	})
}

func TestEngine_Evaluate(t *testing.T) {
	engine := reasoning.New()

	t.Run("gaps come back in fixed rule order", func(t *testing.T) {
		result := engine.Evaluate(diabeticHTNFacts(8.2, 150, 95, "Metformin 1000mg BID"), "PT001")

		gt.Value(t, len(result.Gaps)).Equal(3)
		gt.Value(t, result.Gaps[0].GapType).Equal(types.GapTypeA1CThreshold)
		gt.Value(t, result.Gaps[1].GapType).Equal(types.GapTypeHTNACEARB)
		gt.Value(t, result.Gaps[2].GapType).Equal(types.GapTypeBPControl)
	})

	t.Run("counts and status for all gaps closed", func(t *testing.T) {
		result := engine.Evaluate(diabeticHTNFacts(6.5, 120, 80, "Metformin 1000mg BID", "Lisinopril 10mg daily"), "PT001")

		gt.Value(t, result.GapsFound).Equal(0)
		gt.Value(t, result.GapsClosed).Equal(3)
		gt.Value(t, result.OverallStatus).Equal(types.StatusAllGapsClosed)
	})

	t.Run("urgent status when any detected gap is high", func(t *testing.T) {
		// Missing ACE/ARB alone forces urgent
		result := engine.Evaluate(diabeticHTNFacts(6.5, 120, 80, "Metformin 1000mg BID"), "PT001")

		gt.Value(t, result.GapsFound).Equal(1)
		gt.Value(t, result.OverallStatus).Equal(types.StatusUrgentGaps)
	})

	t.Run("moderate gaps yield gaps_identified", func(t *testing.T) {
		result := engine.Evaluate(diabeticHTNFacts(8.2, 150, 95, "Metformin 1000mg BID", "Lisinopril 10mg daily"), "PT001")

		gt.Value(t, result.GapsFound).Equal(2)
		gt.Value(t, result.OverallStatus).Equal(types.StatusGapsIdentified)
	})

	t.Run("evaluation is deterministic", func(t *testing.T) {
		facts := diabeticHTNFacts(8.2, 150, 95, "Metformin 1000mg BID")

		first := engine.Evaluate(facts, "PT001")
		second := engine.Evaluate(facts, "PT001")
		gt.Value(t, second).Equal(first)
	})

	t.Run("every applicable conclusion carries the Therefore prefix", func(t *testing.T) {
		result := engine.Evaluate(diabeticHTNFacts(8.2, 150, 95, "Metformin 1000mg BID"), "PT001")

		for _, gap := range result.Gaps {
			if gap.GapDetected {
				gt.Bool(t, strings.HasPrefix(gap.Therefore, "Therefore,")).True()
			}
		}
	})

	t.Run("summary lists detected and closed gaps", func(t *testing.T) {
		result := engine.Evaluate(diabeticHTNFacts(9.2, 120, 80, "Metformin 1000mg BID", "Lisinopril 10mg daily"), "PT001")
		summary := result.Summary()

		gt.Bool(t, strings.Contains(summary, "Patient PT001 - Care Gap Analysis")).True()
		gt.Bool(t, strings.Contains(summary, "GAPS IDENTIFIED (1):")).True()
		gt.Bool(t, strings.Contains(summary, "[HIGH] A1C_THRESHOLD")).True()
		gt.Bool(t, strings.Contains(summary, "GAPS CLOSED (2):")).True()
		gt.Bool(t, strings.Contains(summary, "Overall Status: urgent_gaps_identified")).True()
	})
}
