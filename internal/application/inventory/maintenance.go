package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// DeactivateStock baja lógica de la fila de stock; solo con cantidad cero (ErrHasActiveStock si no).
func (e *Engine) DeactivateStock(ctx context.Context, productID, warehouseID, userID string) error {
	key := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
	var st *entity.Stock
	err := e.uow.Do(ctx, "deactivate_stock", []entity.StockKey{key}, func(ctx context.Context, r repository.Repos) error {
		var err error
		st, err = NewStockStore(r, e.now).Deactivate(ctx, productID, warehouseID)
		return err
	})
	if err != nil {
		return err
	}
	e.audit.Log(ctx, audit.Entry{
		TableName:   entity.TableStock,
		Action:      entity.AuditDelete,
		RecordID:    st.ID,
		Description: fmt.Sprintf("Stock desactivado: producto %s en bodega %s", productID, warehouseID),
		UserID:      userID,
	})
	return nil
}

// RebuildTotals recalcula Product.TotalStock de todos los productos activos desde las filas activas.
// Devuelve cuántos productos cambiaron. Pensado para mantenimiento, no para el camino normal.
func (e *Engine) RebuildTotals(ctx context.Context) (int, error) {
	products, err := e.repos.Products.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, p := range products {
		var total int64
		err := e.uow.Do(ctx, "rebuild_total", nil, func(ctx context.Context, r repository.Repos) error {
			var err error
			total, err = NewStockStore(r, e.now).RecomputeTotal(ctx, p.ID)
			return err
		})
		if err != nil {
			return changed, fmt.Errorf("producto %s: %w", p.ID, err)
		}
		if total != p.TotalStock {
			changed++
			e.log.Warn().Str("product_id", p.ID).Int64("before", p.TotalStock).Int64("after", total).Msg("total de stock corregido")
		}
	}
	return changed, nil
}
