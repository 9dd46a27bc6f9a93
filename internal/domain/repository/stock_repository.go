package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por bodega+producto.
// Usado dentro de transacciones para garantizar consistencia.
// Get y GetForUpdate devuelven (nil, nil) si no hay fila activa para la clave.
type StockRepository interface {
	Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error)
	Create(ctx context.Context, stock *entity.Stock) error
	Update(ctx context.Context, stock *entity.Stock) error
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Stock, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Stock, error)
	// SumActiveByProduct suma las cantidades de las filas activas del producto.
	SumActiveByProduct(ctx context.Context, productID string) (int64, error)
	// HasPositiveInWarehouse / HasPositiveForBrand: existe alguna fila activa con cantidad > 0.
	HasPositiveInWarehouse(ctx context.Context, warehouseID string) (bool, error)
	HasPositiveForBrand(ctx context.Context, brandID string) (bool, error)
}
