package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository    = (*productRepo)(nil)
	_ repository.WarehouseRepository  = (*warehouseRepo)(nil)
	_ repository.BrandRepository      = (*brandRepo)(nil)
	_ repository.CostCenterRepository = (*costCenterRepo)(nil)
	_ repository.UserRepository       = (*userRepo)(nil)
)

// ─── Product ─────────────────────────────────────────────────────────────────

type productRepo view

// product devuelve la copia vista por esta transacción (total incluido). Requiere s.mu.
func (r *productRepo) product(id string) *entity.Product {
	var src *entity.Product
	if r.ov != nil {
		src = r.ov.products[id]
	}
	if src == nil {
		src = r.s.products[id]
	}
	if src == nil {
		return nil
	}
	c := *src
	if base, ok := r.s.products[id]; ok {
		c.TotalStock = base.TotalStock
	}
	if r.ov != nil {
		if total, ok := r.ov.totalSets[id]; ok {
			c.TotalStock = total
		}
		c.TotalStock += r.ov.totalDeltas[id]
	}
	return &c
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.product(id), nil
}

func (r *productRepo) all(keep func(*entity.Product) bool) []*entity.Product {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]string, 0, len(r.s.products))
	for id := range r.s.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*entity.Product, 0, len(ids))
	for _, id := range ids {
		if p := r.product(id); keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r *productRepo) ListActive(context.Context) ([]*entity.Product, error) {
	return r.all(func(p *entity.Product) bool { return p.IsActive }), nil
}

func (r *productRepo) ListLowStock(context.Context) ([]*entity.Product, error) {
	return r.all(func(p *entity.Product) bool { return p.IsActive && p.IsLowStock() }), nil
}

func (r *productRepo) AddTotalStock(_ context.Context, productID string, delta int64) error {
	ov := r.ov
	if ov == nil {
		ov = newOverlay()
	}
	ov.totalDeltas[productID] += delta
	if r.ov == nil {
		return r.s.commit(ov)
	}
	return nil
}

// LockForUpdate registra la versión del total; el commit falla con ErrConflict si otra
// transacción lo cambió entretanto.
func (r *productRepo) LockForUpdate(_ context.Context, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.product(productID) == nil {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	if r.ov == nil {
		return nil
	}
	if _, ok := r.ov.productLocks[productID]; !ok {
		r.ov.productLocks[productID] = r.s.totalVersion[productID]
	}
	return nil
}

func (r *productRepo) SetTotalStock(_ context.Context, productID string, total int64) error {
	ov := r.ov
	if ov == nil {
		ov = newOverlay()
	}
	ov.totalSets[productID] = total
	delete(ov.totalDeltas, productID)
	if r.ov == nil {
		return r.s.commit(ov)
	}
	return nil
}

func (r *productRepo) Update(_ context.Context, product *entity.Product) error {
	c := *product
	if r.ov != nil {
		r.ov.products[c.ID] = &c
		return nil
	}
	ov := newOverlay()
	ov.products[c.ID] = &c
	return r.s.commit(ov)
}

// ─── Warehouse / Brand / CostCenter ──────────────────────────────────────────

type warehouseRepo view

func (r *warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return lookup(r.s.warehouses, overWarehouses(r.ov), id), nil
}

// GetForShare / GetForUpdate: el commit revalida que ninguna bodega inactiva quede con stock.
func (r *warehouseRepo) GetForShare(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.GetByID(ctx, id)
}

func (r *warehouseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.GetByID(ctx, id)
}

func (r *warehouseRepo) ListActive(context.Context) ([]*entity.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return merge(r.s.warehouses, overWarehouses(r.ov), func(w *entity.Warehouse) bool { return w.IsActive }), nil
}

func (r *warehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	c := *w
	if r.ov != nil {
		r.ov.warehouses[c.ID] = &c
		return nil
	}
	ov := newOverlay()
	ov.warehouses[c.ID] = &c
	return r.s.commit(ov)
}

func overWarehouses(ov *overlay) map[string]*entity.Warehouse {
	if ov == nil {
		return nil
	}
	return ov.warehouses
}

type brandRepo view

func (r *brandRepo) GetByID(_ context.Context, id string) (*entity.Brand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return lookup(r.s.brands, overBrands(r.ov), id), nil
}

func (r *brandRepo) GetForShare(ctx context.Context, id string) (*entity.Brand, error) {
	return r.GetByID(ctx, id)
}

func (r *brandRepo) GetForUpdate(ctx context.Context, id string) (*entity.Brand, error) {
	return r.GetByID(ctx, id)
}

func (r *brandRepo) ListActive(context.Context) ([]*entity.Brand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return merge(r.s.brands, overBrands(r.ov), func(b *entity.Brand) bool { return b.IsActive }), nil
}

func (r *brandRepo) Update(_ context.Context, b *entity.Brand) error {
	c := *b
	if r.ov != nil {
		r.ov.brands[c.ID] = &c
		return nil
	}
	ov := newOverlay()
	ov.brands[c.ID] = &c
	return r.s.commit(ov)
}

func overBrands(ov *overlay) map[string]*entity.Brand {
	if ov == nil {
		return nil
	}
	return ov.brands
}

type costCenterRepo view

func (r *costCenterRepo) GetByID(_ context.Context, id string) (*entity.CostCenter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return lookup(r.s.costCenters, map[string]*entity.CostCenter(nil), id), nil
}

// ─── User ────────────────────────────────────────────────────────────────────

type userRepo view

func overUsers(ov *overlay) map[string]*entity.User {
	if ov == nil {
		return nil
	}
	return ov.users
}

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	return r.put(u)
}

func (r *userRepo) Update(_ context.Context, u *entity.User) error {
	return r.put(u)
}

func (r *userRepo) put(u *entity.User) error {
	c := *u
	if r.ov != nil {
		r.ov.users[c.ID] = &c
		return nil
	}
	ov := newOverlay()
	ov.users[c.ID] = &c
	return r.s.commit(ov)
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return lookup(r.s.users, overUsers(r.ov), id), nil
}

func (r *userRepo) GetByPersonnelCode(_ context.Context, code string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := merge(r.s.users, overUsers(r.ov), func(u *entity.User) bool { return u.PersonnelCode == code })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *userRepo) List(context.Context) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return merge(r.s.users, overUsers(r.ov), nil), nil
}

// lookup copia del registro por id (overlay primero). Requiere s.mu.
func lookup[T any](base, over map[string]*T, id string) *T {
	v, ok := over[id]
	if !ok {
		v, ok = base[id]
	}
	if !ok {
		return nil
	}
	c := *v
	return &c
}
