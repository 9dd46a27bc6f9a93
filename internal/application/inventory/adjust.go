package inventory

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// AdjustStock corrección manual: INCREASE, DECREASE o SET (valor absoluto).
// DECREASE sobre una clave sin fila o con cantidad menor falla con ErrInsufficientStock.
// Cada ajuste deja exactamente una entrada ADJUST con la cantidad anterior y la nueva.
func (e *Engine) AdjustStock(ctx context.Context, req dto.AdjustStockRequest, userID string) (_ *dto.StockResponse, err error) {
	action := strings.ToUpper(strings.TrimSpace(req.Action))
	ctx, span := e.startSpan(ctx, "inventory.AdjustStock",
		attribute.String("product_id", req.ProductID),
		attribute.String("warehouse_id", req.WarehouseID),
		attribute.String("action", action),
	)
	defer func() { endSpan(span, err) }()

	switch action {
	case dto.AdjustIncrease, dto.AdjustDecrease:
		if req.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
	case dto.AdjustSet:
		if req.Quantity < 0 {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, fmt.Errorf("acción de ajuste %q: %w", req.Action, domain.ErrInvalidInput)
	}
	product, err := e.requireProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	warehouse, err := e.requireWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	var change Change
	key := entity.StockKey{ProductID: req.ProductID, WarehouseID: req.WarehouseID}
	err = e.uow.Do(ctx, "adjust_stock", []entity.StockKey{key}, func(ctx context.Context, r repository.Repos) error {
		store := NewStockStore(r, e.now)
		var err error
		switch action {
		case dto.AdjustIncrease:
			change, err = store.ApplyDelta(ctx, req.ProductID, req.WarehouseID, req.Quantity)
		case dto.AdjustDecrease:
			change, err = store.ApplyDelta(ctx, req.ProductID, req.WarehouseID, -req.Quantity)
		case dto.AdjustSet:
			change, err = store.SetAbsolute(ctx, req.ProductID, req.WarehouseID, req.Quantity)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	after := change.Stock.Quantity
	e.audit.Log(ctx, audit.Entry{
		TableName:   entity.TableStock,
		Action:      entity.AuditAdjust,
		RecordID:    req.ProductID + "-" + req.WarehouseID,
		Description: fmt.Sprintf("Stock ajustado: %s en %s - de %d a %d (%s) - motivo: %s", product.Name, warehouse.Name, change.Before, after, action, req.Reason),
		UserID:      userID,
		OldValues:   quantitySnapshot{Quantity: change.Before},
		NewValues:   quantitySnapshot{Quantity: after},
	})
	e.publish(ctx, "ADJUST", change.Stock, change.Delta(), userID)

	resp := stockResponse(change.Stock, product.Name, warehouse.Name)
	return &resp, nil
}
