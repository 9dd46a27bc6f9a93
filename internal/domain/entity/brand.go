package entity

import "time"

// Brand marca comercial; agrupa productos para el resumen de stock.
type Brand struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b *Brand) Deactivate(now time.Time) {
	b.IsActive = false
	b.UpdatedAt = now
}

func (b *Brand) Reactivate(now time.Time) {
	b.IsActive = true
	b.UpdatedAt = now
}
