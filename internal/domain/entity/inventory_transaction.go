package entity

import "time"

// TransactionType tipo de movimiento de inventario.
type TransactionType string

const (
	TransactionIn  TransactionType = "In"  // entrada
	TransactionOut TransactionType = "Out" // salida
)

func (t TransactionType) Valid() bool {
	return t == TransactionIn || t == TransactionOut
}

// InventoryTransaction registro inmutable de un movimiento aceptado.
type InventoryTransaction struct {
	ID           string
	ProductID    string
	WarehouseID  string
	Quantity     int64 // siempre > 0; el signo lo da Type
	Type         TransactionType
	CostCenterID *string // solo tiene sentido en salidas
	UserID       string
	Note         string
	CreatedAt    time.Time
}

// Delta variación que el movimiento aplica al stock.
func (t *InventoryTransaction) Delta() int64 {
	if t.Type == TransactionOut {
		return -t.Quantity
	}
	return t.Quantity
}
