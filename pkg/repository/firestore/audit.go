package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

type auditDoc struct {
	ID        string    `firestore:"ID"`
	PatientID string    `firestore:"PatientID"`
	Component string    `firestore:"Component"`
	Action    string    `firestore:"Action"`
	Success   bool      `firestore:"Success"`
	Details   string    `firestore:"Details"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

type auditRepository struct {
	client *firestore.Client
	prefix string
}

func newAuditRepository(client *firestore.Client, prefix string) *auditRepository {
	return &auditRepository{client: client, prefix: prefix}
}

func (r *auditRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.prefix + "audit_logs")
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLog) error {
	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	stored.CreatedAt = time.Now().UTC()

	doc := &auditDoc{
		ID:        stored.ID,
		PatientID: string(stored.PatientID),
		Component: stored.Component,
		Action:    stored.Action,
		Success:   stored.Success,
		Details:   stored.Details,
		CreatedAt: stored.CreatedAt,
	}
	if _, err := r.collection().Doc(stored.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to append audit log", goerr.V("auditID", stored.ID))
	}

	return nil
}

func (r *auditRepository) Recent(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	iter := r.collection().
		OrderBy("CreatedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	entries := make([]*model.AuditLog, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate audit logs")
		}

		var d auditDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal audit log")
		}

		entries = append(entries, &model.AuditLog{
			ID:        d.ID,
			PatientID: types.PatientID(d.PatientID),
			Component: d.Component,
			Action:    d.Action,
			Success:   d.Success,
			Details:   d.Details,
			CreatedAt: d.CreatedAt,
		})
	}

	return entries, nil
}
