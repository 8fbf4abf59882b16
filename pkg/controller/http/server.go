// Package http exposes the clinical gap-analysis operations as a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/repository/firestore"
	"github.com/kmufti7/careflow/pkg/repository/memory"
	"github.com/kmufti7/careflow/pkg/usecase"
	"github.com/kmufti7/careflow/pkg/utils/errutil"
	"github.com/kmufti7/careflow/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/patients", s.listPatients)
		r.Get("/patients/{patientID}", s.getPatient)
		r.Post("/patients/{patientID}/analyze", s.analyzePatient)
		r.Get("/patients/{patientID}/appointments", s.listAppointments)
		r.Post("/query", s.processQuery)
		r.Post("/appointments", s.bookAppointment)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// handleError maps repository not-found errors to 404 and everything else
// to 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound) {
		status = http.StatusNotFound
	}
	errutil.HandleHTTP(r.Context(), w, err, status)
}

func (s *Server) listPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.uc.Patients(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	type patientResponse struct {
		ID   types.PatientID `json:"id"`
		Name string          `json:"name"`
		DOB  string          `json:"dob,omitempty"`
	}
	resp := struct {
		Patients []patientResponse `json:"patients"`
	}{
		Patients: make([]patientResponse, len(patients)),
	}
	for i, p := range patients {
		resp.Patients[i] = patientResponse{ID: p.ID, Name: p.Name, DOB: p.DOB}
	}

	respondJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	patientID := types.PatientID(chi.URLParam(r, "patientID"))

	patient, err := s.uc.Patient(r.Context(), patientID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"id":   patient.ID,
		"name": patient.Name,
		"dob":  patient.DOB,
	})
}

func (s *Server) analyzePatient(w http.ResponseWriter, r *http.Request) {
	patientID := types.PatientID(chi.URLParam(r, "patientID"))

	var req struct {
		TopK int  `json:"top_k"`
		Book bool `json:"book"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
			return
		}
	}

	var opts []usecase.AnalyzeOption
	if req.TopK > 0 {
		opts = append(opts, usecase.WithGuidelines(req.TopK))
	}
	if req.Book {
		opts = append(opts, usecase.WithBooking())
	}

	result, err := s.uc.Analyze(r.Context(), patientID, opts...)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) processQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string          `json:"query"`
		PatientID types.PatientID `json:"patient_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("query is required"), http.StatusBadRequest)
		return
	}

	result, err := s.uc.ProcessQuery(r.Context(), usecase.QueryInput{
		Query:     req.Query,
		PatientID: req.PatientID,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientID     types.PatientID `json:"patient_id"`
		Specialty     types.Specialty `json:"specialty"`
		Reason        string          `json:"reason"`
		PreferredDate string          `json:"preferred_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if req.PatientID == "" || req.Specialty == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("patient_id and specialty are required"), http.StatusBadRequest)
		return
	}

	result, err := s.uc.Book(r.Context(), req.PatientID, req.Specialty, req.Reason, req.PreferredDate)
	if err != nil {
		handleError(w, r, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	respondJSON(w, r, status, result)
}

func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	patientID := types.PatientID(chi.URLParam(r, "patientID"))

	appointments, err := s.uc.Appointments(r.Context(), patientID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"appointments": appointments,
	})
}
