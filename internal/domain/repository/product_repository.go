package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListActive(ctx context.Context) ([]*entity.Product, error)
	// ListLowStock productos activos con TotalStock <= ReorderPoint.
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
	// AddTotalStock aplica delta sobre el total desnormalizado de forma atómica.
	AddTotalStock(ctx context.Context, productID string, delta int64) error
	// LockForUpdate bloquea la fila del producto hasta el fin de la transacción; ErrNotFound si no existe.
	// Quien recalcula el total lo toma antes de sumar, así ningún AddTotalStock concurrente se pierde.
	LockForUpdate(ctx context.Context, productID string) error
	SetTotalStock(ctx context.Context, productID string, total int64) error
	Update(ctx context.Context, product *entity.Product) error
}
