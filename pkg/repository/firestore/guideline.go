package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// distanceField receives the cosine distance computed by FindNearest.
const distanceField = "VectorDistance"

type guidelineDoc struct {
	ID        string             `firestore:"ID"`
	Title     string             `firestore:"Title"`
	Text      string             `firestore:"Text"`
	Source    string             `firestore:"Source"`
	Condition string             `firestore:"Condition"`
	Embedding firestore.Vector32 `firestore:"Embedding"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
	UpdatedAt time.Time          `firestore:"UpdatedAt"`
}

func toGuidelineDoc(g *model.Guideline) *guidelineDoc {
	return &guidelineDoc{
		ID:        string(g.ID),
		Title:     g.Title,
		Text:      g.Text,
		Source:    g.Source,
		Condition: g.Condition,
		Embedding: firestore.Vector32(g.Embedding),
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func fromGuidelineDoc(d *guidelineDoc) *model.Guideline {
	return &model.Guideline{
		ID:        types.GuidelineID(d.ID),
		Title:     d.Title,
		Text:      d.Text,
		Source:    d.Source,
		Condition: d.Condition,
		Embedding: []float32(d.Embedding),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type guidelineRepository struct {
	client *firestore.Client
	prefix string
}

func newGuidelineRepository(client *firestore.Client, prefix string) *guidelineRepository {
	return &guidelineRepository{client: client, prefix: prefix}
}

func (r *guidelineRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.prefix + "guidelines")
}

func (r *guidelineRepository) Put(ctx context.Context, guideline *model.Guideline) (*model.Guideline, error) {
	now := time.Now().UTC()
	stored := *guideline
	stored.UpdatedAt = now
	stored.CreatedAt = now

	existing, err := r.Get(ctx, stored.ID)
	switch {
	case err == nil:
		stored.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrNotFound):
		// first write keeps CreatedAt = now
	default:
		return nil, err
	}

	if _, err := r.collection().Doc(string(stored.ID)).Set(ctx, toGuidelineDoc(&stored)); err != nil {
		return nil, goerr.Wrap(err, "failed to put guideline", goerr.V("guidelineID", stored.ID))
	}

	return &stored, nil
}

func (r *guidelineRepository) Get(ctx context.Context, id types.GuidelineID) (*model.Guideline, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "guideline not found", goerr.V("guidelineID", id))
		}
		return nil, goerr.Wrap(err, "failed to get guideline", goerr.V("guidelineID", id))
	}

	var d guidelineDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal guideline", goerr.V("guidelineID", id))
	}

	return fromGuidelineDoc(&d), nil
}

func (r *guidelineRepository) List(ctx context.Context) ([]*model.Guideline, error) {
	iter := r.collection().OrderBy("ID", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	guidelines := make([]*model.Guideline, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate guidelines")
		}

		var d guidelineDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal guideline")
		}

		guidelines = append(guidelines, fromGuidelineDoc(&d))
	}

	return guidelines, nil
}

func (r *guidelineRepository) FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.RetrievedGuideline, error) {
	query := r.collection().FindNearest(
		"Embedding",
		firestore.Vector32(embedding),
		limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{
			DistanceResultField: distanceField,
		},
	)

	iter := query.Documents(ctx)
	defer iter.Stop()

	results := make([]*model.RetrievedGuideline, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to execute vector search")
		}

		var d guidelineDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal guideline")
		}

		// Cosine distance is 1 - similarity
		score := 0.0
		if dist, ok := doc.Data()[distanceField].(float64); ok {
			score = 1.0 - dist
		}

		results = append(results, &model.RetrievedGuideline{
			Guideline: *fromGuidelineDoc(&d),
			Score:     score,
		})
	}

	return results, nil
}
