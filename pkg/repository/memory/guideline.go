package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

type guidelineRepository struct {
	mu         sync.RWMutex
	guidelines map[types.GuidelineID]*model.Guideline
}

func newGuidelineRepository() *guidelineRepository {
	return &guidelineRepository{
		guidelines: make(map[types.GuidelineID]*model.Guideline),
	}
}

func copyGuideline(g *model.Guideline) *model.Guideline {
	copied := *g
	if g.Embedding != nil {
		copied.Embedding = make([]float32, len(g.Embedding))
		copy(copied.Embedding, g.Embedding)
	}
	return &copied
}

func (r *guidelineRepository) Put(ctx context.Context, guideline *model.Guideline) (*model.Guideline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := copyGuideline(guideline)
	if existing, exists := r.guidelines[stored.ID]; exists {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.guidelines[stored.ID] = stored
	return copyGuideline(stored), nil
}

func (r *guidelineRepository) Get(ctx context.Context, id types.GuidelineID) (*model.Guideline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	guideline, exists := r.guidelines[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "guideline not found", goerr.V("guidelineID", id))
	}

	return copyGuideline(guideline), nil
}

func (r *guidelineRepository) List(ctx context.Context) ([]*model.Guideline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Guideline, 0, len(r.guidelines))
	for _, g := range r.guidelines {
		result = append(result, copyGuideline(g))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (r *guidelineRepository) FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.RetrievedGuideline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*model.RetrievedGuideline
	for _, g := range r.guidelines {
		if len(g.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(embedding, g.Embedding)
		candidates = append(candidates, &model.RetrievedGuideline{
			Guideline: *copyGuideline(g),
			Score:     score,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	return candidates[:limit], nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
