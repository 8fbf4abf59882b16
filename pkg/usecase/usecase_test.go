package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/repository/memory"
)

const gapNote = `Subjective: Patient reports fatigue, increased thirst.

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

const closedNote = `Objective:
- Vitals: BP 118/76 mmHg
- Labs: A1C 6.4%

Assessment:
- Type 2 Diabetes Mellitus - well controlled
- Essential Hypertension - at goal

Current Medications:
- Metformin 1000mg BID
- Lisinopril 10mg daily

Plan:
- Continue current regimen`

// mockSession is a mock gollem Session for testing
type mockSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"{}"}}, nil
}

func (s *mockSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockClient is a mock gollem LLMClient for testing
type mockClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
	embedding    []float64
	embeddingErr error
}

func (c *mockClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockSession{}, nil
}

func (c *mockClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	if c.embeddingErr != nil {
		return nil, c.embeddingErr
	}
	if c.embedding != nil {
		return [][]float64{c.embedding}, nil
	}
	return nil, errors.New("no embedding configured")
}

func newPatient(id types.PatientID, name string) *model.Patient {
	return &model.Patient{ID: id, Name: name}
}

func date(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func seedWorld(t *testing.T) interfaces.Repository {
	t.Helper()
	repo := memory.New()
	ctx := context.Background()

	patients := []*model.Patient{
		{ID: "PT001", Name: "John Smith"},
		{ID: "PT002", Name: "Maria Garcia"},
	}
	for _, p := range patients {
		_, err := repo.Patient().Create(ctx, p)
		gt.NoError(t, err).Required()
	}

	notes := []*model.Note{
		{PatientID: "PT001", NoteDate: "2024-06-01", Text: gapNote},
		{PatientID: "PT002", NoteDate: "2024-06-02", Text: closedNote},
	}
	for _, n := range notes {
		_, err := repo.Note().Create(ctx, n)
		gt.NoError(t, err).Required()
	}

	doctors := []*model.Doctor{
		{ID: "DR001", Name: "Dr. Chen", Specialty: types.SpecialtyEndocrinology},
		{ID: "DR002", Name: "Dr. Patel", Specialty: types.SpecialtyCardiology},
	}
	for _, d := range doctors {
		_, err := repo.Doctor().Create(ctx, d)
		gt.NoError(t, err).Required()
	}

	slots := []*model.Slot{
		{DoctorID: "DR001", StartsAt: date(2026, 9, 1, 9)},
		{DoctorID: "DR001", StartsAt: date(2026, 9, 2, 9)},
		{DoctorID: "DR002", StartsAt: date(2026, 9, 1, 14)},
		{DoctorID: "DR002", StartsAt: date(2026, 9, 3, 14)},
	}
	for _, s := range slots {
		gt.NoError(t, repo.Doctor().AddSlot(ctx, s)).Required()
	}

	guidelines := []*model.Guideline{
		{ID: "guideline_001_a1c_threshold", Title: "A1C Target", Text: "A1C should be below 7.0% for most adults with diabetes.", Embedding: []float32{1, 0, 0}},
		{ID: "guideline_002_htn_ace_inhibitor", Title: "ACE/ARB for DM+HTN", Text: "Patients with diabetes and hypertension should be on an ACE inhibitor or ARB.", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "guideline_004_bp_target", Title: "BP Target", Text: "Blood pressure target is below 140/90 mmHg.", Embedding: []float32{0, 1, 0}},
	}
	for _, g := range guidelines {
		_, err := repo.Guideline().Put(ctx, g)
		gt.NoError(t, err).Required()
	}

	return repo
}
