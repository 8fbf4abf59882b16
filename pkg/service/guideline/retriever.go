// Package guideline retrieves indexed guideline snippets with a PHI-aware
// dual-backend strategy: patient data stays on the local backend, and only
// de-identified concept queries may reach the cloud backend.
package guideline

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/kmufti7/careflow/pkg/domain/interfaces"
	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
	"github.com/kmufti7/careflow/pkg/service/concept"
	"github.com/kmufti7/careflow/pkg/utils/logging"
)

// DefaultTopK is the number of guidelines returned when no limit is given.
const DefaultTopK = 3

// Result is the outcome of one retrieval, including which backend actually
// served it.
type Result struct {
	Guidelines     []*model.RetrievedGuideline `json:"guidelines"`
	ModeUsed       types.RetrievalMode         `json:"mode_used"`
	QueryUsed      string                      `json:"query_used"`
	PHISafe        bool                        `json:"phi_safe"`
	Source         string                      `json:"source"`
	FallbackUsed   bool                        `json:"fallback_used"`
	FallbackReason string                      `json:"fallback_reason,omitempty"`
}

// Retriever embeds concept queries and searches the guideline index.
type Retriever struct {
	llmClient       gollem.LLMClient
	local           interfaces.GuidelineRepository
	cloud           interfaces.GuidelineRepository
	mode            types.RetrievalMode
	fallbackToLocal bool
	builder         *concept.Builder
}

// Option is a functional option for Retriever configuration
type Option func(*Retriever)

// WithCloud provides the cloud guideline backend and switches the retriever
// into cloud mode. Every query to it passes the PHI gate first.
func WithCloud(repo interfaces.GuidelineRepository) Option {
	return func(r *Retriever) {
		r.cloud = repo
		r.mode = types.RetrievalCloud
	}
}

// WithoutFallback disables falling back to the local backend when the cloud
// backend fails.
func WithoutFallback() Option {
	return func(r *Retriever) {
		r.fallbackToLocal = false
	}
}

// New creates a retriever over the local guideline backend. Cloud mode is
// opt-in via WithCloud.
func New(llmClient gollem.LLMClient, local interfaces.GuidelineRepository, opts ...Option) (*Retriever, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if local == nil {
		return nil, goerr.New("local guideline repository is required")
	}

	r := &Retriever{
		llmClient:       llmClient,
		local:           local,
		mode:            types.RetrievalLocal,
		fallbackToLocal: true,
		builder:         concept.New(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Mode returns the configured retrieval mode.
func (r *Retriever) Mode() types.RetrievalMode {
	return r.mode
}

// SearchWithFacts is the PHI-safe entry point: patient facts are reduced to
// generic concepts before anything is embedded or queried.
func (r *Retriever) SearchWithFacts(ctx context.Context, facts *model.ExtractedFacts, topK int) (*Result, error) {
	query := r.builder.BuildFromFacts(facts)
	return r.search(ctx, query.QueryText, topK)
}

// SearchWithGaps targets guidelines for the detected care gaps.
func (r *Retriever) SearchWithGaps(ctx context.Context, gaps []model.GapResult, topK int) (*Result, error) {
	query := r.builder.BuildFromGaps(gaps)
	return r.search(ctx, query.QueryText, topK)
}

// SearchRaw queries with a caller-supplied string. It bypasses the concept
// builder, so in cloud mode the PHI gate is the only protection left;
// prefer SearchWithFacts.
func (r *Retriever) SearchRaw(ctx context.Context, query string, topK int) (*Result, error) {
	return r.search(ctx, query, topK)
}

func (r *Retriever) search(ctx context.Context, query string, topK int) (*Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	// Nothing leaves the trust boundary without passing the PHI gate,
	// including the embedding request. A violation is a hard error, never
	// a silent fallback.
	if r.mode == types.RetrievalCloud {
		if err := concept.CheckPHISafety(query); err != nil {
			return nil, err
		}
	}

	embedding, err := r.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if r.mode == types.RetrievalCloud {
		guidelines, err := r.cloud.FindByEmbedding(ctx, embedding, topK)
		if err == nil {
			return &Result{
				Guidelines: guidelines,
				ModeUsed:   types.RetrievalCloud,
				QueryUsed:  query,
				PHISafe:    true,
				Source:     "cloud",
			}, nil
		}

		if !r.fallbackToLocal {
			return nil, goerr.Wrap(err, "cloud guideline search failed and fallback is disabled")
		}

		logging.From(ctx).Warn("cloud guideline search failed, falling back to local backend",
			"error", err,
		)

		guidelines, localErr := r.local.FindByEmbedding(ctx, embedding, topK)
		if localErr != nil {
			return nil, goerr.Wrap(localErr, "local fallback search failed")
		}

		return &Result{
			Guidelines:     guidelines,
			ModeUsed:       types.RetrievalCloud,
			QueryUsed:      query,
			PHISafe:        true,
			Source:         "local",
			FallbackUsed:   true,
			FallbackReason: err.Error(),
		}, nil
	}

	guidelines, err := r.local.FindByEmbedding(ctx, embedding, topK)
	if err != nil {
		return nil, goerr.Wrap(err, "local guideline search failed")
	}

	return &Result{
		Guidelines: guidelines,
		ModeUsed:   types.RetrievalLocal,
		QueryUsed:  query,
		PHISafe:    true,
		Source:     "local",
	}, nil
}

func (r *Retriever) embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := r.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate query embedding")
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned")
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}
	return result, nil
}
