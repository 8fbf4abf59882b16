package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	controller "github.com/kmufti7/careflow/pkg/controller/http"
	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/repository/memory"
	"github.com/kmufti7/careflow/pkg/usecase"
)

const testNote = `Objective:
- Vitals: BP 142/94 mmHg
- Labs: A1C 8.2%

Assessment:
- Type 2 Diabetes Mellitus - suboptimally controlled
- Essential Hypertension - not at goal

Current Medications:
- Metformin 1000mg BID
- Amlodipine 5mg daily

Plan:
- Follow up in 3 months`

func newTestServer(t *testing.T) (*controller.Server, interfaces.Repository) {
	t.Helper()
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.Patient().Create(ctx, &model.Patient{ID: "PT001", Name: "John Smith"})
	gt.NoError(t, err).Required()
	_, err = repo.Note().Create(ctx, &model.Note{PatientID: "PT001", NoteDate: "2024-06-01", Text: testNote})
	gt.NoError(t, err).Required()

	_, err = repo.Doctor().Create(ctx, &model.Doctor{ID: "DR001", Name: "Dr. Chen", Specialty: types.SpecialtyEndocrinology})
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.Doctor().AddSlot(ctx, &model.Slot{
		DoctorID: "DR001",
		StartsAt: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	})).Required()

	return controller.New(usecase.New(repo)), repo
}

func TestListPatients(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patients", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Patients []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"patients"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, len(resp.Patients)).Equal(1)
	gt.Value(t, resp.Patients[0].ID).Equal("PT001")
}

func TestGetPatient(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patients/PT001", nil))
		gt.Value(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patients/PT404", nil))
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestAnalyzePatient(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/patients/PT001/analyze", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		PatientID string `json:"patient_id"`
		Reasoning struct {
			GapsFound     int    `json:"gaps_found"`
			OverallStatus string `json:"overall_status"`
		} `json:"reasoning"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp.PatientID).Equal("PT001")
	gt.Value(t, resp.Reasoning.GapsFound).Equal(3)
	gt.Value(t, resp.Reasoning.OverallStatus).Equal("urgent_gaps_identified")
}

func TestAnalyzePatient_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/patients/PT404/analyze", nil))

	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}

func TestProcessQuery(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("gap analysis", func(t *testing.T) {
		body := bytes.NewBufferString(`{"query": "What care gaps does this patient have?", "patient_id": "PT001"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/query", body)
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Intent   string `json:"intent"`
			Response string `json:"response"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.Intent).Equal("gap_analysis")
		gt.Bool(t, strings.Contains(resp.Response, "Care Gaps Identified")).True()
	})

	t.Run("missing query", func(t *testing.T) {
		body := bytes.NewBufferString(`{"patient_id": "PT001"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/query", body)

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestBookAppointment(t *testing.T) {
	server, repo := newTestServer(t)

	t.Run("books the open slot", func(t *testing.T) {
		body := bytes.NewBufferString(`{"patient_id": "PT001", "specialty": "Endocrinology", "reason": "A1C follow-up"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/appointments", body)

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Success    bool   `json:"success"`
			DoctorName string `json:"doctor_name"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Bool(t, resp.Success).True()
		gt.Value(t, resp.DoctorName).Equal("Dr. Chen")

		appts, err := repo.Appointment().ListByPatient(context.Background(), "PT001")
		gt.NoError(t, err).Required()
		gt.Value(t, len(appts)).Equal(1)
	})

	t.Run("calendar exhausted", func(t *testing.T) {
		body := bytes.NewBufferString(`{"patient_id": "PT001", "specialty": "Endocrinology", "reason": "again"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/appointments", body)

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusConflict)
	})

	t.Run("missing fields", func(t *testing.T) {
		body := bytes.NewBufferString(`{"patient_id": "PT001"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/appointments", body)

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestListAppointments(t *testing.T) {
	server, repo := newTestServer(t)
	ctx := context.Background()

	_, err := repo.Appointment().Create(ctx, &model.Appointment{
		PatientID: "PT001",
		DoctorID:  "DR001",
		StartsAt:  time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		Reason:    "follow-up",
	})
	gt.NoError(t, err).Required()

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patients/PT001/appointments", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Appointments []struct {
			Reason string `json:"Reason"`
		} `json:"appointments"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, len(resp.Appointments)).Equal(1)
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)
}
