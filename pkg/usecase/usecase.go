package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/gollem"

	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/repository/firestore"
	"github.com/kmufti7/careflow/pkg/repository/memory"
	"github.com/kmufti7/careflow/pkg/service/booking"
	"github.com/kmufti7/careflow/pkg/service/extract"
	"github.com/kmufti7/careflow/pkg/service/guideline"
	"github.com/kmufti7/careflow/pkg/service/planner"
	"github.com/kmufti7/careflow/pkg/service/reasoning"
	"github.com/kmufti7/careflow/pkg/utils/logging"
)

// UseCases wires the extraction, reasoning, retrieval and booking services
// behind the application operations. All collaborators are injected; none are
// reached through globals.
type UseCases struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient
	retriever *guideline.Retriever

	extractor *extract.Extractor
	engine    *reasoning.Engine
	booking   *booking.Service
	planner   *planner.Planner
}

type Option func(*UseCases)

// WithLLMClient enables the LLM-backed paths: extraction fallback, query
// embedding and response composition. Without it every operation degrades to
// its deterministic form.
func WithLLMClient(client gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llmClient = client
	}
}

// WithRetriever replaces the default local-only retriever, e.g. with one in
// cloud mode.
func WithRetriever(r *guideline.Retriever) Option {
	return func(uc *UseCases) {
		uc.retriever = r
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.extractor = extract.New(extract.WithLLMClient(uc.llmClient))
	uc.engine = reasoning.New()
	uc.booking = booking.New(repo)
	uc.planner = planner.New()

	if uc.retriever == nil && uc.llmClient != nil {
		// Both arguments are non-nil here, so construction cannot fail.
		uc.retriever, _ = guideline.New(uc.llmClient, repo.Guideline())
	}

	return uc
}

// Repository exposes the underlying repository to the surface layers.
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}

// audit appends an audit record. Audit failures are logged, never fatal: the
// clinical result matters more than the trace of how it was produced.
func (uc *UseCases) audit(ctx context.Context, patientID types.PatientID, component, action string, success bool, details string) {
	entry := &model.AuditLog{
		PatientID: patientID,
		Component: component,
		Action:    action,
		Success:   success,
		Details:   details,
	}
	if err := uc.repo.Audit().Append(ctx, entry); err != nil {
		logging.From(ctx).Warn("failed to append audit log",
			"component", component,
			"action", action,
			"error", err,
		)
	}
}

// isNotFound matches the not-found sentinel from either repository backend.
func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}
