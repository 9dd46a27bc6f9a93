// Package memory implementa los puertos de persistencia en memoria.
// Cada Run acumula escrituras en un overlay que se aplica bajo el mutex del store al confirmar;
// si fn falla el overlay se descarta y el store queda intacto.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

// Store estado compartido.
type Store struct {
	mu           sync.Mutex
	stocks       map[string]*entity.Stock
	products     map[string]*entity.Product
	warehouses   map[string]*entity.Warehouse
	brands       map[string]*entity.Brand
	costCenters  map[string]*entity.CostCenter
	users        map[string]*entity.User
	grants       map[string]*entity.WarehouseGrant
	transactions []*entity.InventoryTransaction
	audit        []*entity.AuditLog
	totalVersion map[string]uint64 // sube con cada cambio confirmado de TotalStock

	auditErr error
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		stocks:       map[string]*entity.Stock{},
		products:     map[string]*entity.Product{},
		warehouses:   map[string]*entity.Warehouse{},
		brands:       map[string]*entity.Brand{},
		costCenters:  map[string]*entity.CostCenter{},
		users:        map[string]*entity.User{},
		grants:       map[string]*entity.WarehouseGrant{},
		totalVersion: map[string]uint64{},
	}
}

// overlay escrituras pendientes de una transacción.
type overlay struct {
	stocks       map[string]*entity.Stock
	products     map[string]*entity.Product
	totalDeltas  map[string]int64
	totalSets    map[string]int64
	warehouses   map[string]*entity.Warehouse
	brands       map[string]*entity.Brand
	users        map[string]*entity.User
	grants       map[string]*entity.WarehouseGrant
	transactions []*entity.InventoryTransaction
	audit        []*entity.AuditLog
	productLocks map[string]uint64 // versión del total vista al bloquear el producto
}

func newOverlay() *overlay {
	return &overlay{
		stocks:       map[string]*entity.Stock{},
		products:     map[string]*entity.Product{},
		totalDeltas:  map[string]int64{},
		totalSets:    map[string]int64{},
		warehouses:   map[string]*entity.Warehouse{},
		brands:       map[string]*entity.Brand{},
		users:        map[string]*entity.User{},
		grants:       map[string]*entity.WarehouseGrant{},
		productLocks: map[string]uint64{},
	}
}

// Repos repositorios sin transacción (cada operación se confirma sola).
func (s *Store) Repos() repository.Repos {
	return s.repos(nil)
}

func (s *Store) repos(ov *overlay) repository.Repos {
	v := &view{s: s, ov: ov}
	return repository.Repos{
		Stocks:       (*stockRepo)(v),
		Products:     (*productRepo)(v),
		Warehouses:   (*warehouseRepo)(v),
		Brands:       (*brandRepo)(v),
		CostCenters:  (*costCenterRepo)(v),
		Users:        (*userRepo)(v),
		Grants:       (*grantRepo)(v),
		Transactions: (*transactionRepo)(v),
		AuditLogs:    (*auditRepo)(v),
	}
}

// Run ejecuta fn con repos atados a un overlay y lo confirma si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	ov := newOverlay()
	if err := fn(s.repos(ov)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return s.commit(ov)
}

// commit valida unicidad y aplica el overlay de forma atómica.
func (s *Store) commit(ov *overlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, st := range ov.stocks {
		if !st.IsActive {
			continue
		}
		for oid, other := range s.stocks {
			if oid == id || !other.IsActive || other.Key() != st.Key() {
				continue
			}
			if o, ok := ov.stocks[oid]; ok && !o.IsActive {
				continue
			}
			return domain.ErrConflict
		}
	}
	for id, g := range ov.grants {
		for oid, other := range s.grants {
			if oid != id && other.UserID == g.UserID && other.WarehouseID == g.WarehouseID {
				return domain.ErrConflict
			}
		}
	}
	for id, u := range ov.users {
		for oid, other := range s.users {
			if oid != id && other.PersonnelCode == u.PersonnelCode {
				return domain.ErrDuplicate
			}
		}
	}
	// un total recalculado sobre una suma ya vieja pierde deltas confirmados entre medio
	for id, v := range ov.productLocks {
		if s.totalVersion[id] != v {
			return domain.ErrConflict
		}
	}
	if err := s.checkActiveReferences(ov); err != nil {
		return err
	}

	for id, st := range ov.stocks {
		s.stocks[id] = st
	}
	for id, p := range ov.products {
		if cur, ok := s.products[id]; ok {
			p.TotalStock = cur.TotalStock
		}
		s.products[id] = p
	}
	for id, total := range ov.totalSets {
		if p, ok := s.products[id]; ok {
			p.TotalStock = total
			s.totalVersion[id]++
		}
	}
	for id, d := range ov.totalDeltas {
		if p, ok := s.products[id]; ok {
			p.TotalStock += d
			s.totalVersion[id]++
		}
	}
	for id, w := range ov.warehouses {
		s.warehouses[id] = w
	}
	for id, b := range ov.brands {
		s.brands[id] = b
	}
	for id, u := range ov.users {
		s.users[id] = u
	}
	for id, g := range ov.grants {
		s.grants[id] = g
	}
	s.transactions = append(s.transactions, ov.transactions...)
	s.audit = append(s.audit, ov.audit...)
	return nil
}

// checkActiveReferences ninguna bodega ni marca inactiva queda con stock positivo:
// ni por un incremento confirmado después de la baja ni por una baja confirmada
// después de un incremento. Requiere s.mu.
func (s *Store) checkActiveReferences(ov *overlay) error {
	warehouse := func(id string) *entity.Warehouse {
		if w, ok := ov.warehouses[id]; ok {
			return w
		}
		return s.warehouses[id]
	}
	brand := func(id string) *entity.Brand {
		if b, ok := ov.brands[id]; ok {
			return b
		}
		return s.brands[id]
	}
	for id, st := range ov.stocks {
		if !st.IsActive || st.Quantity <= 0 {
			continue
		}
		if base, ok := s.stocks[id]; ok && base.IsActive && st.Quantity <= base.Quantity {
			continue
		}
		if w := warehouse(st.WarehouseID); w != nil && !w.IsActive {
			return domain.ErrConflict
		}
		if b := brand(st.BrandID); b != nil && !b.IsActive {
			return domain.ErrConflict
		}
	}

	var closedWarehouses, closedBrands []string
	for id, w := range ov.warehouses {
		if base, ok := s.warehouses[id]; ok && base.IsActive && !w.IsActive {
			closedWarehouses = append(closedWarehouses, id)
		}
	}
	for id, b := range ov.brands {
		if base, ok := s.brands[id]; ok && base.IsActive && !b.IsActive {
			closedBrands = append(closedBrands, id)
		}
	}
	if len(closedWarehouses) == 0 && len(closedBrands) == 0 {
		return nil
	}
	positive := func(keep func(*entity.Stock) bool) bool {
		for id, st := range s.stocks {
			if o, ok := ov.stocks[id]; ok {
				st = o
			}
			if st.IsActive && st.Quantity > 0 && keep(st) {
				return true
			}
		}
		for id, st := range ov.stocks {
			if _, ok := s.stocks[id]; !ok && st.IsActive && st.Quantity > 0 && keep(st) {
				return true
			}
		}
		return false
	}
	for _, id := range closedWarehouses {
		if positive(func(st *entity.Stock) bool { return st.WarehouseID == id }) {
			return domain.ErrConflict
		}
	}
	for _, id := range closedBrands {
		if positive(func(st *entity.Stock) bool { return st.BrandID == id }) {
			return domain.ErrConflict
		}
	}
	return nil
}

// FailAuditWrites hace que las escrituras de bitácora fallen con err (nil restablece).
func (s *Store) FailAuditWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditErr = err
}

// ─── Datos de referencia (seed) ──────────────────────────────────────────────

func (s *Store) SeedUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.ID] = &c
}

func (s *Store) SeedWarehouse(w *entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *w
	s.warehouses[w.ID] = &c
}

func (s *Store) SeedBrand(b *entity.Brand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *b
	s.brands[b.ID] = &c
}

func (s *Store) SeedProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.products[p.ID] = &c
}

func (s *Store) SeedCostCenter(cc *entity.CostCenter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cc
	s.costCenters[cc.ID] = &c
}

// merge combina base y overlay por id (el overlay gana) y ordena por id.
func merge[T any](base, over map[string]*T, keep func(*T) bool) []*T {
	out := make([]*T, 0, len(base)+len(over))
	ids := make([]string, 0, len(base)+len(over))
	seen := map[string]struct{}{}
	for id := range over {
		ids = append(ids, id)
		seen[id] = struct{}{}
	}
	for id := range base {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		v, ok := over[id]
		if !ok {
			v = base[id]
		}
		if keep == nil || keep(v) {
			c := *v
			out = append(out, &c)
		}
	}
	return out
}
