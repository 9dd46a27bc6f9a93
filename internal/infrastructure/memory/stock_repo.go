package memory

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// view repos sobre el store; con ov != nil las escrituras van al overlay.
type view struct {
	s  *Store
	ov *overlay
}

var _ repository.StockRepository = (*stockRepo)(nil)

type stockRepo view

func (r *stockRepo) overStocks() map[string]*entity.Stock {
	if r.ov == nil {
		return nil
	}
	return r.ov.stocks
}

func (r *stockRepo) list(keep func(*entity.Stock) bool) []*entity.Stock {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return merge(r.s.stocks, r.overStocks(), keep)
}

func (r *stockRepo) Get(_ context.Context, productID, warehouseID string) (*entity.Stock, error) {
	key := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
	rows := r.list(func(s *entity.Stock) bool { return s.IsActive && s.Key() == key })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetForUpdate igual que Get: la exclusión la da el KeyLocker del motor.
func (r *stockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	return r.Get(ctx, productID, warehouseID)
}

func (r *stockRepo) Create(ctx context.Context, stock *entity.Stock) error {
	return r.put(stock)
}

func (r *stockRepo) Update(ctx context.Context, stock *entity.Stock) error {
	return r.put(stock)
}

func (r *stockRepo) put(stock *entity.Stock) error {
	c := *stock
	if r.ov != nil {
		r.ov.stocks[c.ID] = &c
		return nil
	}
	ov := newOverlay()
	ov.stocks[c.ID] = &c
	return r.s.commit(ov)
}

func (r *stockRepo) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.Stock, error) {
	return r.list(func(s *entity.Stock) bool { return s.IsActive && s.WarehouseID == warehouseID }), nil
}

func (r *stockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Stock, error) {
	return r.list(func(s *entity.Stock) bool { return s.IsActive && s.ProductID == productID }), nil
}

func (r *stockRepo) SumActiveByProduct(ctx context.Context, productID string) (int64, error) {
	rows, _ := r.ListByProduct(ctx, productID)
	var total int64
	for _, s := range rows {
		total += s.Quantity
	}
	return total, nil
}

func (r *stockRepo) HasPositiveInWarehouse(_ context.Context, warehouseID string) (bool, error) {
	rows := r.list(func(s *entity.Stock) bool { return s.IsActive && s.WarehouseID == warehouseID && s.Quantity > 0 })
	return len(rows) > 0, nil
}

func (r *stockRepo) HasPositiveForBrand(_ context.Context, brandID string) (bool, error) {
	rows := r.list(func(s *entity.Stock) bool { return s.IsActive && s.BrandID == brandID && s.Quantity > 0 })
	return len(rows) > 0, nil
}
