package interfaces

import (
	"context"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// GuidelineRepository manages indexed guideline snippets and vector search
type GuidelineRepository interface {
	Put(ctx context.Context, guideline *model.Guideline) (*model.Guideline, error)
	Get(ctx context.Context, id types.GuidelineID) (*model.Guideline, error)
	List(ctx context.Context) ([]*model.Guideline, error)

	// FindByEmbedding returns the guidelines nearest to the embedding by
	// cosine similarity, best first, with similarity scores.
	FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.RetrievedGuideline, error)
}

// AuditRepository appends orchestrator audit records
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditLog) error
	Recent(ctx context.Context, limit int) ([]*model.AuditLog, error)
}
