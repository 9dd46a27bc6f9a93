package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

const unknownName = "Unknown"

// namer resuelve nombres legibles con caché por consulta; ausentes -> "Unknown".
type namer struct {
	repos       repository.Repos
	products    map[string]string
	warehouses  map[string]string
	costCenters map[string]string
	users       map[string]string
}

func newNamer(repos repository.Repos) *namer {
	return &namer{
		repos:       repos,
		products:    map[string]string{},
		warehouses:  map[string]string{},
		costCenters: map[string]string{},
		users:       map[string]string{},
	}
}

func (n *namer) product(ctx context.Context, id string) string {
	if name, ok := n.products[id]; ok {
		return name
	}
	name := unknownName
	if p, err := n.repos.Products.GetByID(ctx, id); err == nil && p != nil {
		name = p.Name
	}
	n.products[id] = name
	return name
}

func (n *namer) warehouse(ctx context.Context, id string) string {
	if name, ok := n.warehouses[id]; ok {
		return name
	}
	name := unknownName
	if w, err := n.repos.Warehouses.GetByID(ctx, id); err == nil && w != nil {
		name = w.Name
	}
	n.warehouses[id] = name
	return name
}

func (n *namer) costCenter(ctx context.Context, id string) string {
	if name, ok := n.costCenters[id]; ok {
		return name
	}
	name := unknownName
	if cc, err := n.repos.CostCenters.GetByID(ctx, id); err == nil && cc != nil {
		name = cc.Name
	}
	n.costCenters[id] = name
	return name
}

func (n *namer) user(ctx context.Context, id string) string {
	if name, ok := n.users[id]; ok {
		return name
	}
	name := unknownName
	if u, err := n.repos.Users.GetByID(ctx, id); err == nil && u != nil {
		name = u.FullName()
	}
	n.users[id] = name
	return name
}

func (n *namer) transaction(ctx context.Context, t *entity.InventoryTransaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:            t.ID,
		ProductID:     t.ProductID,
		ProductName:   n.product(ctx, t.ProductID),
		WarehouseID:   t.WarehouseID,
		WarehouseName: n.warehouse(ctx, t.WarehouseID),
		Quantity:      t.Quantity,
		Type:          string(t.Type),
		CostCenterID:  t.CostCenterID,
		UserID:        t.UserID,
		UserName:      n.user(ctx, t.UserID),
		Note:          t.Note,
		CreatedAt:     t.CreatedAt,
	}
	if t.CostCenterID != nil {
		resp.CostCenterName = n.costCenter(ctx, *t.CostCenterID)
	}
	return resp
}

func (n *namer) stock(ctx context.Context, s *entity.Stock) dto.StockResponse {
	return stockResponse(s, n.product(ctx, s.ProductID), n.warehouse(ctx, s.WarehouseID))
}

func stockResponse(s *entity.Stock, productName, warehouseName string) dto.StockResponse {
	return dto.StockResponse{
		ID:            s.ID,
		ProductID:     s.ProductID,
		ProductName:   productName,
		WarehouseID:   s.WarehouseID,
		WarehouseName: warehouseName,
		Quantity:      s.Quantity,
		UpdatedAt:     s.UpdatedAt,
	}
}

func stockEvent(kind string, s *entity.Stock, delta int64, userID string, at time.Time) dto.StockEvent {
	return dto.StockEvent{
		Kind:        kind,
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		Quantity:    s.Quantity,
		Delta:       delta,
		UserID:      userID,
		OccurredAt:  at,
	}
}
