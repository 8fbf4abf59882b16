package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/service/guideline"
)

// ErrRetrievalUnavailable is returned when no LLM client was configured, so
// no query embedding can be produced.
var ErrRetrievalUnavailable = goerr.New("guideline retrieval is not configured")

// SearchGuidelines runs a raw-text guideline search. In cloud mode the text
// still passes the PHI gate inside the retriever.
func (uc *UseCases) SearchGuidelines(ctx context.Context, query string, topK int) (*guideline.Result, error) {
	if uc.retriever == nil {
		return nil, ErrRetrievalUnavailable
	}
	return uc.retriever.SearchRaw(ctx, query, topK)
}

// SearchGuidelinesForFacts retrieves guidelines through the PHI-safe concept
// path.
func (uc *UseCases) SearchGuidelinesForFacts(ctx context.Context, facts *model.ExtractedFacts, topK int) (*guideline.Result, error) {
	if uc.retriever == nil {
		return nil, ErrRetrievalUnavailable
	}
	return uc.retriever.SearchWithFacts(ctx, facts, topK)
}

// Patients lists all patient records.
func (uc *UseCases) Patients(ctx context.Context) ([]*model.Patient, error) {
	patients, err := uc.repo.Patient().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list patients")
	}
	return patients, nil
}

// Patient returns a single patient record.
func (uc *UseCases) Patient(ctx context.Context, id types.PatientID) (*model.Patient, error) {
	patient, err := uc.repo.Patient().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get patient", goerr.V("patientID", id))
	}
	return patient, nil
}
