package inventory

import (
	"context"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// Authority puerto de autorización por bodega (implementado por access.Authority).
type Authority interface {
	CanViewAs(ctx context.Context, userID string, role entity.Role, warehouseID string) (bool, error)
	CanModifyAs(ctx context.Context, userID string, role entity.Role, warehouseID string) (bool, error)
	AccessibleWarehouseIDsAs(ctx context.Context, userID string, role entity.Role, includeViewOnly bool) (map[string]struct{}, error)
}

// AuditLogger puerto de bitácora; nunca falla hacia el llamador.
type AuditLogger interface {
	Log(ctx context.Context, e audit.Entry)
}

// EventPublisher notifica cambios de stock ya confirmados (best effort).
type EventPublisher interface {
	Publish(ctx context.Context, event dto.StockEvent)
}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, dto.StockEvent) {}

// MultiPublisher reenvía cada evento a todos los publicadores.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event dto.StockEvent) {
	for _, p := range m {
		p.Publish(ctx, event)
	}
}
