package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// StockStore agregado de cantidades por (producto, bodega) dentro de una unidad atómica.
// Mantiene Product.TotalStock con el mismo delta que aplica a la fila.
type StockStore struct {
	stocks     repository.StockRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	brands     repository.BrandRepository
	now        func() time.Time
}

// NewStockStore construye el store sobre repos atados a una transacción.
func NewStockStore(r repository.Repos, now func() time.Time) *StockStore {
	if now == nil {
		now = time.Now
	}
	return &StockStore{stocks: r.Stocks, products: r.Products, warehouses: r.Warehouses, brands: r.Brands, now: now}
}

// Change resultado de una mutación: cantidad previa y fila resultante.
type Change struct {
	Before  int64
	Existed bool
	Stock   *entity.Stock
}

func (c Change) Delta() int64 {
	return c.Stock.Quantity - c.Before
}

// Get fila activa bloqueada para la unidad; nil si no existe.
func (s *StockStore) Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	st, err := s.stocks.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return st, nil
}

// ApplyDelta suma delta a la fila (creándola si delta >= 0 y no existe).
// Si el resultado fuera negativo devuelve ErrInsufficientStock sin modificar nada.
func (s *StockStore) ApplyDelta(ctx context.Context, productID, warehouseID string, delta int64) (Change, error) {
	if err := s.lockReferences(ctx, productID, warehouseID); err != nil {
		return Change{}, err
	}
	st, err := s.Get(ctx, productID, warehouseID)
	if err != nil {
		return Change{}, err
	}
	now := s.now()
	if st == nil {
		if delta < 0 {
			return Change{}, domain.ErrInsufficientStock
		}
		st, err = s.create(ctx, productID, warehouseID, delta, now)
		if err != nil {
			return Change{}, err
		}
		return Change{Stock: st}, s.addTotal(ctx, productID, delta)
	}

	before := st.Quantity
	if err := st.Apply(delta, now); err != nil {
		return Change{}, err
	}
	if err := s.stocks.Update(ctx, st); err != nil {
		return Change{}, fmt.Errorf("update stock: %w", err)
	}
	return Change{Before: before, Existed: true, Stock: st}, s.addTotal(ctx, productID, delta)
}

// SetAbsolute sobrescribe la cantidad (>= 0), creando la fila si no existe.
func (s *StockStore) SetAbsolute(ctx context.Context, productID, warehouseID string, quantity int64) (Change, error) {
	if quantity < 0 {
		return Change{}, domain.ErrInvalidInput
	}
	if err := s.lockReferences(ctx, productID, warehouseID); err != nil {
		return Change{}, err
	}
	st, err := s.Get(ctx, productID, warehouseID)
	if err != nil {
		return Change{}, err
	}
	now := s.now()
	if st == nil {
		st, err = s.create(ctx, productID, warehouseID, quantity, now)
		if err != nil {
			return Change{}, err
		}
		return Change{Stock: st}, s.addTotal(ctx, productID, quantity)
	}

	before := st.Quantity
	if err := st.Set(quantity, now); err != nil {
		return Change{}, err
	}
	if err := s.stocks.Update(ctx, st); err != nil {
		return Change{}, fmt.Errorf("update stock: %w", err)
	}
	return Change{Before: before, Existed: true, Stock: st}, s.addTotal(ctx, productID, quantity-before)
}

// Deactivate baja lógica de la fila; solo con cantidad cero.
func (s *StockStore) Deactivate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	st, err := s.Get(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	if err := st.Deactivate(s.now()); err != nil {
		return nil, err
	}
	if err := s.stocks.Update(ctx, st); err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}
	return st, nil
}

// RecomputeTotal recalcula Product.TotalStock como suma de filas activas (reparación).
// La fila del producto se bloquea antes de sumar: un delta confirmado antes del lock entra
// en la suma y uno posterior se aplica sobre el total nuevo.
func (s *StockStore) RecomputeTotal(ctx context.Context, productID string) (int64, error) {
	if err := s.products.LockForUpdate(ctx, productID); err != nil {
		return 0, err
	}
	total, err := s.stocks.SumActiveByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("sum stock: %w", err)
	}
	if err := s.products.SetTotalStock(ctx, productID, total); err != nil {
		return 0, fmt.Errorf("set total stock: %w", err)
	}
	return total, nil
}

// lockReferences revalida dentro de la unidad que bodega, producto y marca sigan activos.
// Bodega y marca quedan con bloqueo compartido, así una baja concurrente espera al commit
// o esta unidad la ve ya confirmada.
func (s *StockStore) lockReferences(ctx context.Context, productID, warehouseID string) error {
	w, err := s.warehouses.GetForShare(ctx, warehouseID)
	if err != nil {
		return fmt.Errorf("lock warehouse: %w", err)
	}
	if w == nil || !w.IsActive {
		return fmt.Errorf("bodega %s: %w", warehouseID, domain.ErrNotFound)
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if p == nil || !p.IsActive {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	if p.BrandID == "" {
		return nil
	}
	b, err := s.brands.GetForShare(ctx, p.BrandID)
	if err != nil {
		return fmt.Errorf("lock brand: %w", err)
	}
	if b != nil && !b.IsActive {
		return fmt.Errorf("marca %s: %w", p.BrandID, domain.ErrNotFound)
	}
	return nil
}

func (s *StockStore) create(ctx context.Context, productID, warehouseID string, quantity int64, now time.Time) (*entity.Stock, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	st := &entity.Stock{
		ID:          uuid.New().String(),
		ProductID:   productID,
		BrandID:     p.BrandID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
		IsActive:    true,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.stocks.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create stock: %w", err)
	}
	return st, nil
}

func (s *StockStore) addTotal(ctx context.Context, productID string, delta int64) error {
	if delta == 0 {
		return nil
	}
	if err := s.products.AddTotalStock(ctx, productID, delta); err != nil {
		return fmt.Errorf("update total stock: %w", err)
	}
	return nil
}
