package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/utils/logging"
)

// AnalysisResult is the outcome of analyzing one patient's latest note.
type AnalysisResult struct {
	PatientID  types.PatientID            `json:"patient_id"`
	NoteDate   string                     `json:"note_date"`
	Facts      *model.ExtractedFacts      `json:"facts"`
	Reasoning  *model.ReasoningResult     `json:"reasoning"`
	Guidelines []*model.RetrievedGuideline `json:"guidelines,omitempty"`
	Bookings   []*model.BookingResult     `json:"bookings,omitempty"`
}

type analyzeConfig struct {
	topK     int
	bookGaps bool
}

type AnalyzeOption func(*analyzeConfig)

// WithGuidelines retrieves the top-k guidelines matching the detected gaps.
func WithGuidelines(topK int) AnalyzeOption {
	return func(c *analyzeConfig) {
		c.topK = topK
	}
}

// WithBooking books a referral appointment for every detected gap.
func WithBooking() AnalyzeOption {
	return func(c *analyzeConfig) {
		c.bookGaps = true
	}
}

// Analyze runs the full gap analysis on the patient's latest note: extract
// facts, evaluate the care-gap rules, and optionally retrieve guidelines and
// book referrals for the detected gaps.
func (uc *UseCases) Analyze(ctx context.Context, patientID types.PatientID, opts ...AnalyzeOption) (*AnalysisResult, error) {
	var cfg analyzeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := uc.repo.Patient().Get(ctx, patientID); err != nil {
		return nil, goerr.Wrap(err, "failed to look up patient", goerr.V("patientID", patientID))
	}

	note, err := uc.repo.Note().Latest(ctx, patientID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load latest note", goerr.V("patientID", patientID))
	}

	facts := uc.extractor.Extract(ctx, note.Text)
	uc.audit(ctx, patientID, "Extractor", "extract_facts", facts.IsComplete(),
		fmt.Sprintf("method=%s confidence=%.2f", facts.ExtractionMethod, facts.Confidence))

	reasoningResult := uc.engine.Evaluate(facts, patientID)
	uc.audit(ctx, patientID, "ReasoningEngine", "compute_gaps", true,
		fmt.Sprintf("%d gaps found, status: %s", reasoningResult.GapsFound, reasoningResult.OverallStatus))

	result := &AnalysisResult{
		PatientID: patientID,
		NoteDate:  note.NoteDate,
		Facts:     facts,
		Reasoning: reasoningResult,
	}

	if cfg.topK > 0 && uc.retriever != nil {
		search, err := uc.retriever.SearchWithGaps(ctx, reasoningResult.Gaps, cfg.topK)
		if err != nil {
			// Guidelines enrich the report but the gap analysis stands on
			// its own; a retrieval failure degrades, it does not abort.
			logging.From(ctx).Warn("guideline retrieval failed during analysis",
				"patientID", patientID,
				"error", err,
			)
			uc.audit(ctx, patientID, "VectorSearch", "retrieve_guidelines", false, err.Error())
		} else {
			result.Guidelines = search.Guidelines
			uc.audit(ctx, patientID, "VectorSearch", "retrieve_guidelines", true,
				fmt.Sprintf("found %d guidelines via %s", len(search.Guidelines), search.Source))
		}
	}

	if cfg.bookGaps {
		for _, gap := range reasoningResult.Detected() {
			bookingResult, err := uc.booking.BookForGap(ctx, patientID, gap.GapType, gap.Therefore)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to book referral", goerr.V("gapType", gap.GapType))
			}
			uc.audit(ctx, patientID, "BookingTool", "book_appointment", bookingResult.Success, bookingResult.Message)
			result.Bookings = append(result.Bookings, bookingResult)
		}
	}

	return result, nil
}

// analyzeAllConcurrency bounds the fan-out of AnalyzeAll.
const analyzeAllConcurrency = 8

// AnalyzeAll analyzes every patient concurrently. Patients without notes are
// skipped, not treated as failures.
func (uc *UseCases) AnalyzeAll(ctx context.Context, opts ...AnalyzeOption) ([]*AnalysisResult, error) {
	patients, err := uc.repo.Patient().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list patients")
	}

	results := make([]*AnalysisResult, len(patients))

	var eg errgroup.Group
	eg.SetLimit(analyzeAllConcurrency)
	for i, patient := range patients {
		eg.Go(func() error {
			result, err := uc.Analyze(ctx, patient.ID, opts...)
			if err != nil {
				if isNotFound(err) {
					logging.From(ctx).Info("skipping patient without notes", "patientID", patient.ID)
					return nil
				}
				return goerr.Wrap(err, "failed to analyze patient", goerr.V("patientID", patient.ID))
			}
			results[i] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]*AnalysisResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
