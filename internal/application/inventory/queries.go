package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// ─── Movimientos ─────────────────────────────────────────────────────────────
// Solo WarehouseManager se restringe a sus bodegas visibles; el resto de roles
// ve todos los movimientos.

// GetTransactionsByWarehouse movimientos de una bodega. WarehouseManager sin permiso de ver -> ErrForbidden.
func (e *Engine) GetTransactionsByWarehouse(ctx context.Context, warehouseID, userID string, role entity.Role, page dto.PageRequest) ([]dto.TransactionResponse, error) {
	if role == entity.RoleWarehouseManager {
		ok, err := e.authority.CanViewAs(ctx, userID, role, warehouseID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrForbidden
		}
	}
	page.Normalize()
	return e.listTransactions(ctx, repository.TransactionFilter{
		WarehouseIDs: []string{warehouseID},
		Restricted:   true,
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
}

// GetUserAccessibleTransactions movimientos visibles para el usuario.
func (e *Engine) GetUserAccessibleTransactions(ctx context.Context, userID string, role entity.Role, page dto.PageRequest) ([]dto.TransactionResponse, error) {
	page.Normalize()
	f := repository.TransactionFilter{Limit: page.Limit, Offset: page.Offset}
	if err := e.restrictForRole(ctx, &f, userID, role); err != nil {
		return nil, err
	}
	return e.listTransactions(ctx, f)
}

// GetTransactionsByProduct movimientos de un producto en las bodegas visibles.
func (e *Engine) GetTransactionsByProduct(ctx context.Context, productID, userID string, role entity.Role, page dto.PageRequest) ([]dto.TransactionResponse, error) {
	page.Normalize()
	f := repository.TransactionFilter{ProductID: productID, Limit: page.Limit, Offset: page.Offset}
	if err := e.restrictForRole(ctx, &f, userID, role); err != nil {
		return nil, err
	}
	return e.listTransactions(ctx, f)
}

// GetTransactionByID un movimiento; WarehouseManager necesita ver su bodega.
func (e *Engine) GetTransactionByID(ctx context.Context, id, userID string, role entity.Role) (*dto.TransactionResponse, error) {
	t, err := e.repos.Transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("movimiento %s: %w", id, domain.ErrNotFound)
	}
	if role == entity.RoleWarehouseManager {
		ok, err := e.authority.CanViewAs(ctx, userID, role, t.WarehouseID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrForbidden
		}
	}
	resp := newNamer(e.repos).transaction(ctx, t)
	return &resp, nil
}

func (e *Engine) restrictForRole(ctx context.Context, f *repository.TransactionFilter, userID string, role entity.Role) error {
	if role != entity.RoleWarehouseManager {
		return nil
	}
	ids, err := e.authority.AccessibleWarehouseIDsAs(ctx, userID, role, true)
	if err != nil {
		return err
	}
	f.Restricted = true
	f.WarehouseIDs = make([]string, 0, len(ids))
	for id := range ids {
		f.WarehouseIDs = append(f.WarehouseIDs, id)
	}
	return nil
}

func (e *Engine) listTransactions(ctx context.Context, f repository.TransactionFilter) ([]dto.TransactionResponse, error) {
	if f.Restricted && len(f.WarehouseIDs) == 0 {
		return []dto.TransactionResponse{}, nil
	}
	rows, err := e.repos.Transactions.List(ctx, f)
	if err != nil {
		return nil, err
	}
	n := newNamer(e.repos)
	out := make([]dto.TransactionResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, n.transaction(ctx, t))
	}
	return out, nil
}

// ─── Stock ───────────────────────────────────────────────────────────────────

// GetStock stock activo de un producto en una bodega; ErrNotFound si no hay fila.
func (e *Engine) GetStock(ctx context.Context, productID, warehouseID string) (*dto.StockResponse, error) {
	st, err := e.repos.Stocks.Get(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("stock %s-%s: %w", productID, warehouseID, domain.ErrNotFound)
	}
	resp := newNamer(e.repos).stock(ctx, st)
	return &resp, nil
}

func (e *Engine) GetStocksByWarehouse(ctx context.Context, warehouseID string) ([]dto.StockResponse, error) {
	rows, err := e.repos.Stocks.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	return e.stockResponses(ctx, rows), nil
}

func (e *Engine) GetStocksByProduct(ctx context.Context, productID string) ([]dto.StockResponse, error) {
	rows, err := e.repos.Stocks.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return e.stockResponses(ctx, rows), nil
}

func (e *Engine) stockResponses(ctx context.Context, rows []*entity.Stock) []dto.StockResponse {
	n := newNamer(e.repos)
	out := make([]dto.StockResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, n.stock(ctx, s))
	}
	return out
}

// GetLowStockProducts productos activos con TotalStock <= ReorderPoint.
func (e *Engine) GetLowStockProducts(ctx context.Context) ([]dto.LowStockProductResponse, error) {
	products, err := e.repos.Products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, dto.LowStockProductResponse{
			ProductID:    p.ID,
			Name:         p.Name,
			PrimaryCode:  p.PrimaryCode,
			BrandID:      p.BrandID,
			TotalStock:   p.TotalStock,
			ReorderPoint: p.ReorderPoint,
			SafetyStock:  p.SafetyStock,
		})
	}
	return out, nil
}

// GetBrandStockSummary por marca activa: productos, stock total y productos en bajo stock.
func (e *Engine) GetBrandStockSummary(ctx context.Context) ([]dto.BrandStockSummaryResponse, error) {
	brands, err := e.repos.Brands.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	products, err := e.repos.Products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	byBrand := make(map[string]*dto.BrandStockSummaryResponse, len(brands))
	out := make([]dto.BrandStockSummaryResponse, len(brands))
	for i, b := range brands {
		out[i] = dto.BrandStockSummaryResponse{BrandID: b.ID, BrandName: b.Name}
		byBrand[b.ID] = &out[i]
	}
	for _, p := range products {
		s, ok := byBrand[p.BrandID]
		if !ok {
			continue
		}
		s.TotalProducts++
		s.TotalStock += p.TotalStock
		if p.IsLowStock() {
			s.LowStockProducts++
		}
	}
	return out, nil
}
