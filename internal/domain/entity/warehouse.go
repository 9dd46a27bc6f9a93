package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario (multi-bodega).
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Address   string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *Warehouse) Deactivate(now time.Time) {
	w.IsActive = false
	w.UpdatedAt = now
}

func (w *Warehouse) Reactivate(now time.Time) {
	w.IsActive = true
	w.UpdatedAt = now
}
