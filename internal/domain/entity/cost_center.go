package entity

import "time"

// CostCenter centro de costo imputado en las salidas (Out).
type CostCenter struct {
	ID        string
	Code      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
