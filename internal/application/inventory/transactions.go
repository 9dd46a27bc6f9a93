package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// parseTransactionType acepta "In"/"Out" sin distinguir mayúsculas.
func parseTransactionType(s string) (entity.TransactionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return entity.TransactionIn, true
	case "out":
		return entity.TransactionOut, true
	}
	return "", false
}

// CreateTransaction registra un movimiento de entrada o salida.
// WarehouseManager necesita permiso de modificar la bodega. La validación de existencias,
// la mutación del stock y el registro del movimiento forman una sola unidad atómica.
func (e *Engine) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, userID string, role entity.Role) (_ *dto.TransactionResponse, err error) {
	ctx, span := e.startSpan(ctx, "inventory.CreateTransaction",
		attribute.String("product_id", req.ProductID),
		attribute.String("warehouse_id", req.WarehouseID),
		attribute.String("type", req.Type),
	)
	defer func() { endSpan(span, err) }()

	if role == entity.RoleWarehouseManager {
		ok, err := e.authority.CanModifyAs(ctx, userID, role, req.WarehouseID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrForbidden
		}
	}
	txType, ok := parseTransactionType(req.Type)
	if !ok {
		return nil, fmt.Errorf("tipo de movimiento %q: %w", req.Type, domain.ErrInvalidInput)
	}
	if req.ProductID == "" || req.WarehouseID == "" || req.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if _, err := e.requireProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}
	if _, err := e.requireWarehouse(ctx, req.WarehouseID); err != nil {
		return nil, err
	}
	if req.CostCenterID != nil {
		cc, err := e.repos.CostCenters.GetByID(ctx, *req.CostCenterID)
		if err != nil {
			return nil, err
		}
		if cc == nil {
			return nil, fmt.Errorf("centro de costo %s: %w", *req.CostCenterID, domain.ErrNotFound)
		}
	}

	var (
		record *entity.InventoryTransaction
		change Change
	)
	key := entity.StockKey{ProductID: req.ProductID, WarehouseID: req.WarehouseID}
	err = e.uow.Do(ctx, "create_transaction", []entity.StockKey{key}, func(ctx context.Context, r repository.Repos) error {
		store := NewStockStore(r, e.now)
		if txType == entity.TransactionOut {
			st, err := store.Get(ctx, req.ProductID, req.WarehouseID)
			if err != nil {
				return err
			}
			if st == nil || st.Quantity < req.Quantity {
				return domain.ErrInsufficientStock
			}
		}

		record = &entity.InventoryTransaction{
			ID:           uuid.New().String(),
			ProductID:    req.ProductID,
			WarehouseID:  req.WarehouseID,
			Quantity:     req.Quantity,
			Type:         txType,
			CostCenterID: req.CostCenterID,
			UserID:       userID,
			Note:         req.Note,
			CreatedAt:    e.now(),
		}
		var err error
		change, err = store.ApplyDelta(ctx, req.ProductID, req.WarehouseID, record.Delta())
		if err != nil {
			return err
		}
		return r.Transactions.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	e.audit.Log(ctx, audit.Entry{
		TableName:   entity.TableTransaction,
		Action:      entity.AuditCreate,
		RecordID:    record.ID,
		Description: fmt.Sprintf("Movimiento %s de %d unidades del producto %s en la bodega %s", record.Type, record.Quantity, record.ProductID, record.WarehouseID),
		UserID:      userID,
		OldValues:   quantitySnapshot{Quantity: change.Before},
		NewValues:   quantitySnapshot{Quantity: change.Stock.Quantity},
	})
	e.publish(ctx, "TRANSACTION", change.Stock, change.Delta(), userID)
	e.log.Info().
		Str("transaction_id", record.ID).
		Str("product_id", record.ProductID).
		Str("warehouse_id", record.WarehouseID).
		Str("type", string(record.Type)).
		Int64("quantity", record.Quantity).
		Msg("movimiento registrado")

	n := newNamer(e.repos)
	resp := n.transaction(ctx, record)
	return &resp, nil
}

// quantitySnapshot valores antes/después guardados en la bitácora.
type quantitySnapshot struct {
	Quantity int64 `json:"quantity"`
}
