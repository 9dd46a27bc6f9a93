package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// TransactionFilter filtros de listado de movimientos.
// Con Restricted=true solo se devuelven movimientos de WarehouseIDs (vacío = ninguno).
type TransactionFilter struct {
	WarehouseIDs []string
	Restricted   bool
	ProductID    string
	Limit        int
	Offset       int
}

// TransactionRepository define el puerto de persistencia para movimientos de inventario.
// Los movimientos son inmutables: no hay Update ni Delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.InventoryTransaction) error
	GetByID(ctx context.Context, id string) (*entity.InventoryTransaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*entity.InventoryTransaction, error)
}
