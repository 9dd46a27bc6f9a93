package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
type WarehouseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	// GetForShare lectura con bloqueo compartido: las mutaciones de stock lo toman para
	// que una baja concurrente espere a que confirmen (o las haga ver la bodega inactiva).
	GetForShare(ctx context.Context, id string) (*entity.Warehouse, error)
	// GetForUpdate bloqueo exclusivo usado por la baja lógica.
	GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error)
	ListActive(ctx context.Context) ([]*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
}

// BrandRepository define el puerto de persistencia para Brand.
type BrandRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Brand, error)
	GetForShare(ctx context.Context, id string) (*entity.Brand, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Brand, error)
	ListActive(ctx context.Context) ([]*entity.Brand, error)
	Update(ctx context.Context, brand *entity.Brand) error
}

// CostCenterRepository solo lectura.
type CostCenterRepository interface {
	GetByID(ctx context.Context, id string) (*entity.CostCenter, error)
}
