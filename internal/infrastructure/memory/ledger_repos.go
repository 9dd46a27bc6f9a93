package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var (
	_ repository.GrantRepository       = (*grantRepo)(nil)
	_ repository.TransactionRepository = (*transactionRepo)(nil)
	_ repository.AuditLogRepository    = (*auditRepo)(nil)
)

// ─── Grants ──────────────────────────────────────────────────────────────────

type grantRepo view

func overGrants(ov *overlay) map[string]*entity.WarehouseGrant {
	if ov == nil {
		return nil
	}
	return ov.grants
}

func (r *grantRepo) list(keep func(*entity.WarehouseGrant) bool) []*entity.WarehouseGrant {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return merge(r.s.grants, overGrants(r.ov), keep)
}

func (r *grantRepo) Get(_ context.Context, userID, warehouseID string) (*entity.WarehouseGrant, error) {
	rows := r.list(func(g *entity.WarehouseGrant) bool { return g.UserID == userID && g.WarehouseID == warehouseID })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *grantRepo) Create(_ context.Context, g *entity.WarehouseGrant) error {
	return r.put(g)
}

func (r *grantRepo) Update(_ context.Context, g *entity.WarehouseGrant) error {
	return r.put(g)
}

func (r *grantRepo) put(g *entity.WarehouseGrant) error {
	c := *g
	if r.ov != nil {
		r.ov.grants[c.ID] = &c
		return nil
	}
	ov := newOverlay()
	ov.grants[c.ID] = &c
	return r.s.commit(ov)
}

func (r *grantRepo) ListActiveByUser(_ context.Context, userID string) ([]*entity.WarehouseGrant, error) {
	return r.list(func(g *entity.WarehouseGrant) bool { return g.IsActive && g.UserID == userID }), nil
}

func (r *grantRepo) ListActiveByWarehouse(_ context.Context, warehouseID string) ([]*entity.WarehouseGrant, error) {
	return r.list(func(g *entity.WarehouseGrant) bool { return g.IsActive && g.WarehouseID == warehouseID }), nil
}

// ─── Transactions ────────────────────────────────────────────────────────────

type transactionRepo view

func (r *transactionRepo) Create(_ context.Context, tx *entity.InventoryTransaction) error {
	c := *tx
	if r.ov != nil {
		r.ov.transactions = append(r.ov.transactions, &c)
		return nil
	}
	ov := newOverlay()
	ov.transactions = append(ov.transactions, &c)
	return r.s.commit(ov)
}

func (r *transactionRepo) snapshot() []*entity.InventoryTransaction {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := make([]*entity.InventoryTransaction, 0, len(r.s.transactions))
	rows = append(rows, r.s.transactions...)
	if r.ov != nil {
		rows = append(rows, r.ov.transactions...)
	}
	return rows
}

func (r *transactionRepo) GetByID(_ context.Context, id string) (*entity.InventoryTransaction, error) {
	for _, t := range r.snapshot() {
		if t.ID == id {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

// List más recientes primero.
func (r *transactionRepo) List(_ context.Context, f repository.TransactionFilter) ([]*entity.InventoryTransaction, error) {
	allowed := make(map[string]struct{}, len(f.WarehouseIDs))
	for _, id := range f.WarehouseIDs {
		allowed[id] = struct{}{}
	}
	rows := r.snapshot()
	out := make([]*entity.InventoryTransaction, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		t := rows[i]
		if f.Restricted || len(f.WarehouseIDs) > 0 {
			if _, ok := allowed[t.WarehouseID]; !ok {
				continue
			}
		}
		if f.ProductID != "" && t.ProductID != f.ProductID {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Limit, f.Offset), nil
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return rows[:0]
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// ─── Audit ───────────────────────────────────────────────────────────────────

type auditRepo view

func (r *auditRepo) Create(_ context.Context, e *entity.AuditLog) error {
	c := *e
	if r.ov != nil {
		r.ov.audit = append(r.ov.audit, &c)
		return nil
	}
	r.s.mu.Lock()
	err := r.s.auditErr
	r.s.mu.Unlock()
	if err != nil {
		return err
	}
	ov := newOverlay()
	ov.audit = append(ov.audit, &c)
	return r.s.commit(ov)
}

func (r *auditRepo) List(_ context.Context, f repository.AuditFilter) ([]*entity.AuditLog, error) {
	r.s.mu.Lock()
	rows := make([]*entity.AuditLog, len(r.s.audit))
	copy(rows, r.s.audit)
	r.s.mu.Unlock()

	out := make([]*entity.AuditLog, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		e := rows[i]
		switch {
		case f.From != nil && e.CreatedAt.Before(*f.From):
			continue
		case f.To != nil && e.CreatedAt.After(*f.To):
			continue
		case f.TableName != "" && e.TableName != f.TableName:
			continue
		case f.Action != "" && e.Action != f.Action:
			continue
		case f.UserID != "" && e.UserID != f.UserID:
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Limit, 0), nil
}
