package entity

import (
	"time"

	"github.com/jhoicas/stockledger/internal/domain"
)

// Stock representa la cantidad actual de un producto en una bodega.
// Invariantes: Quantity >= 0 y a lo sumo una fila activa por (ProductID, WarehouseID).
type Stock struct {
	ID          string
	ProductID   string
	BrandID     string
	WarehouseID string
	Quantity    int64
	IsActive    bool
	Version     int64 // se incrementa en cada mutación confirmada
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StockKey identifica la unidad de atomicidad (producto, bodega).
type StockKey struct {
	ProductID   string
	WarehouseID string
}

// String forma canónica usada como clave de bloqueo.
func (k StockKey) String() string {
	return "stock:" + k.WarehouseID + ":" + k.ProductID
}

// Less orden total fijo: bodega ascendente, desempate por producto.
func (k StockKey) Less(o StockKey) bool {
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.ProductID < o.ProductID
}

func (s *Stock) Key() StockKey {
	return StockKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}
}

// Apply suma delta a la cantidad. Si el resultado fuera negativo no modifica nada.
func (s *Stock) Apply(delta int64, now time.Time) error {
	next := s.Quantity + delta
	if next < 0 {
		return domain.ErrInsufficientStock
	}
	s.Quantity = next
	s.Version++
	s.UpdatedAt = now
	return nil
}

// Set sobrescribe la cantidad (modo SET de ajustes).
func (s *Stock) Set(quantity int64, now time.Time) error {
	if quantity < 0 {
		return domain.ErrInvalidInput
	}
	s.Quantity = quantity
	s.Version++
	s.UpdatedAt = now
	return nil
}

// Deactivate baja lógica; solo permitida con cantidad cero.
func (s *Stock) Deactivate(now time.Time) error {
	if s.Quantity != 0 {
		return domain.ErrHasActiveStock
	}
	s.IsActive = false
	s.Version++
	s.UpdatedAt = now
	return nil
}
