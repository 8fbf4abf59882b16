package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmufti7/careflow/pkg/domain/model"
)

type auditRepository struct {
	mu      sync.RWMutex
	entries []*model.AuditLog
}

func newAuditRepository() *auditRepository {
	return &auditRepository{}
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	stored.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, &stored)

	return nil
}

func (r *auditRepository) Recent(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.entries)
	if limit > n {
		limit = n
	}

	// Most recent first
	result := make([]*model.AuditLog, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		copied := *r.entries[i]
		result = append(result, &copied)
	}

	return result, nil
}
