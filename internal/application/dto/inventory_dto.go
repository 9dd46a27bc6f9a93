package dto

import "time"

// CreateTransactionRequest body para POST /api/transactions.
type CreateTransactionRequest struct {
	ProductID    string  `json:"product_id" validate:"required"`
	WarehouseID  string  `json:"warehouse_id" validate:"required"`
	Quantity     int64   `json:"quantity" validate:"gt=0"`
	Type         string  `json:"type" validate:"required,movement_type"`
	CostCenterID *string `json:"cost_center_id,omitempty"`
	Note         string  `json:"note,omitempty" validate:"max=500"`
}

// Acciones de ajuste manual.
const (
	AdjustIncrease = "INCREASE"
	AdjustDecrease = "DECREASE"
	AdjustSet      = "SET"
)

// AdjustStockRequest body para POST /api/stock/adjust.
// En SET Quantity es el valor absoluto y puede ser 0.
type AdjustStockRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"gte=0"`
	Action      string `json:"action" validate:"required,adjust_action"`
	Reason      string `json:"reason,omitempty" validate:"max=500"`
}

// TransferStockRequest body para POST /api/stock/transfer.
type TransferStockRequest struct {
	ProductID              string `json:"product_id" validate:"required"`
	SourceWarehouseID      string `json:"source_warehouse_id" validate:"required"`
	DestinationWarehouseID string `json:"destination_warehouse_id" validate:"required,nefield=SourceWarehouseID"`
	Quantity               int64  `json:"quantity" validate:"gt=0"`
	Reason                 string `json:"reason,omitempty" validate:"max=500"`
}

// TransactionResponse movimiento enriquecido con nombres legibles.
type TransactionResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	WarehouseID    string    `json:"warehouse_id"`
	WarehouseName  string    `json:"warehouse_name"`
	Quantity       int64     `json:"quantity"`
	Type           string    `json:"type"`
	CostCenterID   *string   `json:"cost_center_id,omitempty"`
	CostCenterName string    `json:"cost_center_name,omitempty"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	Note           string    `json:"note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// StockResponse snapshot de stock de un producto en una bodega.
type StockResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name,omitempty"`
	WarehouseID   string    `json:"warehouse_id"`
	WarehouseName string    `json:"warehouse_name,omitempty"`
	Quantity      int64     `json:"quantity"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LowStockProductResponse producto con TotalStock <= ReorderPoint.
type LowStockProductResponse struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	PrimaryCode  string `json:"primary_code"`
	BrandID      string `json:"brand_id"`
	TotalStock   int64  `json:"total_stock"`
	ReorderPoint int64  `json:"reorder_point"`
	SafetyStock  int64  `json:"safety_stock"`
}

// BrandStockSummaryResponse resumen de stock por marca.
type BrandStockSummaryResponse struct {
	BrandID          string `json:"brand_id"`
	BrandName        string `json:"brand_name"`
	TotalProducts    int    `json:"total_products"`
	TotalStock       int64  `json:"total_stock"`
	LowStockProducts int    `json:"low_stock_products"`
}

// StockEvent notificación de cambio de stock (websocket / kafka).
type StockEvent struct {
	Kind        string    `json:"kind"` // TRANSACTION, ADJUST, TRANSFER
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Quantity    int64     `json:"quantity"`
	Delta       int64     `json:"delta"`
	UserID      string    `json:"user_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}
