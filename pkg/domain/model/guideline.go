package model

import (
	"time"

	"github.com/kmufti7/careflow/pkg/domain/types"
)

// EmbeddingDimension is the vector size for guideline embeddings
// (Gemini text-embedding-004).
const EmbeddingDimension = 768

// Guideline is one indexed guideline snippet.
type Guideline struct {
	ID        types.GuidelineID
	Title     string
	Text      string
	Source    string
	Condition string
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RetrievedGuideline is a guideline with its retrieval score.
type RetrievedGuideline struct {
	Guideline Guideline `json:"guideline"`
	Score     float64   `json:"score"`
}
