package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// GrantRepository persistencia de permisos usuario/bodega.
// Get devuelve la fila del par esté activa o no; (nil, nil) si nunca existió.
type GrantRepository interface {
	Get(ctx context.Context, userID, warehouseID string) (*entity.WarehouseGrant, error)
	Create(ctx context.Context, grant *entity.WarehouseGrant) error
	Update(ctx context.Context, grant *entity.WarehouseGrant) error
	ListActiveByUser(ctx context.Context, userID string) ([]*entity.WarehouseGrant, error)
	ListActiveByWarehouse(ctx context.Context, warehouseID string) ([]*entity.WarehouseGrant, error)
}
