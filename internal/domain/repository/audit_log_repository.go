package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// AuditFilter filtros conjuntivos y opcionales sobre la bitácora.
type AuditFilter struct {
	From      *time.Time
	To        *time.Time
	TableName string
	Action    entity.AuditAction
	UserID    string
	Limit     int
}

// AuditLogRepository bitácora append-only. List ordena por fecha descendente.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *entity.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]*entity.AuditLog, error)
}
