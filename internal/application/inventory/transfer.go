package inventory

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// transferSnapshot cantidades de origen y destino para la bitácora.
type transferSnapshot struct {
	SourceQuantity      int64 `json:"source_quantity"`
	DestinationQuantity int64 `json:"destination_quantity"`
}

// TransferStock mueve cantidad entre dos bodegas. Ambas claves se bloquean en orden fijo,
// la existencia en origen se valida antes de tocar cualquiera de los dos lados y
// ambas mutaciones se confirman juntas o ninguna.
func (e *Engine) TransferStock(ctx context.Context, req dto.TransferStockRequest, userID string) (err error) {
	ctx, span := e.startSpan(ctx, "inventory.TransferStock",
		attribute.String("product_id", req.ProductID),
		attribute.String("source_warehouse_id", req.SourceWarehouseID),
		attribute.String("destination_warehouse_id", req.DestinationWarehouseID),
		attribute.Int64("quantity", req.Quantity),
	)
	defer func() { endSpan(span, err) }()

	if req.ProductID == "" || req.Quantity <= 0 || req.SourceWarehouseID == req.DestinationWarehouseID {
		return domain.ErrInvalidInput
	}
	product, err := e.requireProduct(ctx, req.ProductID)
	if err != nil {
		return err
	}
	source, err := e.requireWarehouse(ctx, req.SourceWarehouseID)
	if err != nil {
		return err
	}
	destination, err := e.requireWarehouse(ctx, req.DestinationWarehouseID)
	if err != nil {
		return err
	}

	var out, in Change
	keys := []entity.StockKey{
		{ProductID: req.ProductID, WarehouseID: req.SourceWarehouseID},
		{ProductID: req.ProductID, WarehouseID: req.DestinationWarehouseID},
	}
	err = e.uow.Do(ctx, "transfer_stock", keys, func(ctx context.Context, r repository.Repos) error {
		store := NewStockStore(r, e.now)
		src, err := store.Get(ctx, req.ProductID, req.SourceWarehouseID)
		if err != nil {
			return err
		}
		if src == nil || src.Quantity < req.Quantity {
			return domain.ErrInsufficientStock
		}
		if out, err = store.ApplyDelta(ctx, req.ProductID, req.SourceWarehouseID, -req.Quantity); err != nil {
			return err
		}
		in, err = store.ApplyDelta(ctx, req.ProductID, req.DestinationWarehouseID, req.Quantity)
		return err
	})
	if err != nil {
		return err
	}

	e.audit.Log(ctx, audit.Entry{
		TableName:   entity.TableStock,
		Action:      entity.AuditTransfer,
		RecordID:    req.ProductID,
		Description: fmt.Sprintf("Transferencia: %s - de %s a %s - cantidad: %d - motivo: %s", product.Name, source.Name, destination.Name, req.Quantity, req.Reason),
		UserID:      userID,
		OldValues:   transferSnapshot{SourceQuantity: out.Before, DestinationQuantity: in.Before},
		NewValues:   transferSnapshot{SourceQuantity: out.Stock.Quantity, DestinationQuantity: in.Stock.Quantity},
	})
	e.publish(ctx, "TRANSFER", out.Stock, out.Delta(), userID)
	e.publish(ctx, "TRANSFER", in.Stock, in.Delta(), userID)
	return nil
}
