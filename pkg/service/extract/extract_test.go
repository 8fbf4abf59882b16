package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/service/extract"
)

const sampleNote = `Subjective: Patient reports fatigue, increased thirst.

Objective:
- Vitals: BP 142/94 mmHg, HR 78 bpm
- Labs: A1C 8.2%, Fasting glucose 165 mg/dL

Assessment:
- Type 2 Diabetes Mellitus - suboptimally controlled
- Essential Hypertension - not at goal

Current Medications:
- Metformin 1000mg BID
- Amlodipine 5mg daily

Plan:
- Follow up in 3 months`

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"{}"}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func TestExtract_RegexComplete(t *testing.T) {
	extractor := extract.New()
	facts := extractor.Extract(context.Background(), sampleNote)

	gt.Value(t, facts.ExtractionMethod).Equal(types.ExtractionRegex)
	gt.Value(t, facts.Confidence).Equal(1.0)
	gt.Bool(t, facts.IsComplete()).True()

	gt.Value(t, facts.A1C).NotNil()
	gt.Value(t, *facts.A1C).Equal(8.2)

	gt.Value(t, facts.BloodPressure).NotNil()
	gt.Value(t, facts.BloodPressure.Systolic).Equal(142)
	gt.Value(t, facts.BloodPressure.Diastolic).Equal(94)

	gt.Array(t, facts.Diagnoses).Equal([]string{
		"Type 2 Diabetes Mellitus",
		"Essential Hypertension",
	})
	gt.Array(t, facts.Medications).Equal([]string{
		"Metformin 1000mg BID",
		"Amlodipine 5mg daily",
	})
}

func TestExtract_Deterministic(t *testing.T) {
	extractor := extract.New()
	ctx := context.Background()

	first := extractor.Extract(ctx, sampleNote)
	second := extractor.Extract(ctx, sampleNote)

	gt.Value(t, second).Equal(first)
}

func TestExtract_A1CVariants(t *testing.T) {
	cases := []struct {
		name string
		note string
		want float64
	}{
		{"colon", "A1C: 8.2%", 8.2},
		{"bare", "A1C 7.5", 7.5},
		{"hba1c", "HbA1c: 6.9%", 6.9},
		{"of", "A1C of 9.1%", 9.1},
		{"hemoglobin", "Hemoglobin A1c 7.0", 7.0},
	}

	extractor := extract.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			facts := extractor.Extract(context.Background(), tc.note)
			gt.Value(t, facts.A1C).NotNil()
			gt.Value(t, *facts.A1C).Equal(tc.want)
		})
	}
}

func TestExtract_NegatedDiagnosesSkipped(t *testing.T) {
	note := `Assessment:
- Type 2 Diabetes Mellitus
- No evidence of retinopathy
- Denies chest pain
- Negative for proteinuria

Plan:
- Continue current regimen`

	extractor := extract.New()
	facts := extractor.Extract(context.Background(), note)

	gt.Array(t, facts.Diagnoses).Equal([]string{"Type 2 Diabetes Mellitus"})
}

func TestExtract_DiagnosisNormalization(t *testing.T) {
	note := `Assessment:
- HTN - well controlled
- CKD stage 3

Plan:
- recheck labs`

	extractor := extract.New()
	facts := extractor.Extract(context.Background(), note)

	gt.Array(t, facts.Diagnoses).Equal([]string{
		"Essential Hypertension",
		"Chronic Kidney Disease",
	})
}

func TestExtract_MedicationParentheticalStripped(t *testing.T) {
	note := `Current Medications:
- Metformin 1000mg BID (tolerating well)
- Lisinopril  10mg   daily

Plan:
- refill`

	extractor := extract.New()
	facts := extractor.Extract(context.Background(), note)

	gt.Array(t, facts.Medications).Equal([]string{
		"Metformin 1000mg BID",
		"Lisinopril 10mg daily",
	})
}

func TestExtract_AssessmentStopsAtMedications(t *testing.T) {
	extractor := extract.New()
	facts := extractor.Extract(context.Background(), sampleNote)

	// Bullet items under Current Medications must not leak into diagnoses.
	for _, dx := range facts.Diagnoses {
		gt.Value(t, dx).NotEqual("Metformin 1000mg BID")
	}
}

func TestExtract_IncompleteWithoutLLM(t *testing.T) {
	note := `Patient seen for follow-up. BP 130/80.`

	extractor := extract.New()
	facts := extractor.Extract(context.Background(), note)

	gt.Value(t, facts.ExtractionMethod).Equal(types.ExtractionRegex)
	gt.Value(t, facts.Confidence).Equal(0.7)
	gt.Bool(t, facts.IsComplete()).False()
	gt.Array(t, facts.MissingFields()).Equal([]string{"a1c", "diagnoses", "medications"})
}

func TestExtract_LLMFallbackMergesMissingFields(t *testing.T) {
	note := `Triage vitals: BP 150/95 mmHg. Patient describes poor sugar control recently.`

	client := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{
						`{"a1c": 8.9, "blood_pressure": {"systolic": 120, "diastolic": 80}, "diagnoses": ["Type 2 Diabetes Mellitus"], "medications": ["Metformin 500mg daily"]}`,
					}}, nil
				},
			}, nil
		},
	}

	extractor := extract.New(extract.WithLLMClient(client))
	facts := extractor.Extract(context.Background(), note)

	gt.Value(t, facts.ExtractionMethod).Equal(types.ExtractionHybrid)
	gt.Value(t, facts.Confidence).Equal(0.85)

	// Regex found BP, so the LLM's reading must not override it.
	gt.Value(t, facts.BloodPressure).NotNil()
	gt.Value(t, facts.BloodPressure.Systolic).Equal(150)
	gt.Value(t, facts.BloodPressure.Diastolic).Equal(95)

	// Missing fields come from the LLM.
	gt.Value(t, facts.A1C).NotNil()
	gt.Value(t, *facts.A1C).Equal(8.9)
	gt.Array(t, facts.Diagnoses).Equal([]string{"Type 2 Diabetes Mellitus"})
	gt.Array(t, facts.Medications).Equal([]string{"Metformin 500mg daily"})
}

func TestExtract_LLMFailureKeepsRegexFacts(t *testing.T) {
	note := `BP 150/95 mmHg recorded at triage.`

	client := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return nil, errors.New("model unavailable")
				},
			}, nil
		},
	}

	extractor := extract.New(extract.WithLLMClient(client))
	facts := extractor.Extract(context.Background(), note)

	gt.Value(t, facts.ExtractionMethod).Equal(types.ExtractionLLMFailed)
	gt.Value(t, facts.Confidence).Equal(0.0)

	// Regex results survive the failure.
	gt.Value(t, facts.BloodPressure).NotNil()
	gt.Value(t, facts.BloodPressure.Systolic).Equal(150)
}

func TestExtract_NoSectionsNoPanic(t *testing.T) {
	extractor := extract.New()
	facts := extractor.Extract(context.Background(), "unstructured narrative with no vitals at all")

	gt.Value(t, facts.A1C).Nil()
	gt.Value(t, facts.BloodPressure).Nil()
	gt.Value(t, len(facts.Diagnoses)).Equal(0)
	gt.Value(t, len(facts.Medications)).Equal(0)
}
