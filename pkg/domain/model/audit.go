package model

import (
	"time"

	"github.com/kmufti7/careflow/pkg/domain/types"
)

// AuditLog records one orchestrator or tool action for traceability.
type AuditLog struct {
	ID        string
	PatientID types.PatientID
	Component string
	Action    string
	Success   bool
	Details   string
	CreatedAt time.Time
}
