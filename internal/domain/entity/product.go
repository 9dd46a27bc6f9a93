package entity

import "time"

// Product representa un producto del inventario (multi-bodega).
// TotalStock es un valor desnormalizado: suma de las filas de Stock activas del producto.
type Product struct {
	ID           string
	BrandID      string
	Name         string
	Name2        string
	PrimaryCode  string
	Code2        string
	Code3        string
	TotalStock   int64
	ReorderPoint int64
	SafetyStock  int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsLowStock indica si el stock total está en o por debajo del punto de reorden.
func (p *Product) IsLowStock() bool {
	return p.TotalStock <= p.ReorderPoint
}

func (p *Product) Deactivate(now time.Time) {
	p.IsActive = false
	p.UpdatedAt = now
}

func (p *Product) Reactivate(now time.Time) {
	p.IsActive = true
	p.UpdatedAt = now
}
