package entity

import "time"

// AuditAction acción registrada en la bitácora.
type AuditAction string

const (
	AuditCreate   AuditAction = "CREATE"
	AuditUpdate   AuditAction = "UPDATE"
	AuditDelete   AuditAction = "DELETE"
	AuditAdjust   AuditAction = "ADJUST"
	AuditTransfer AuditAction = "TRANSFER"
	AuditGrant    AuditAction = "GRANT"
	AuditRevoke   AuditAction = "REVOKE"
)

// Nombres de tabla usados en la bitácora.
const (
	TableStock          = "Stock"
	TableTransaction    = "InventoryTransaction"
	TableWarehouseGrant = "UserWarehouseAccess"
	TableUsers          = "Users"
	TableWarehouse      = "Warehouse"
	TableBrand          = "Brand"
	TableProduct        = "Product"
)

// AuditLog entrada inmutable de la bitácora (append-only).
type AuditLog struct {
	ID          string
	TableName   string
	Action      AuditAction
	RecordID    string
	Description string
	OldValues   *string // snapshot serializado (JSON)
	NewValues   *string
	UserID      string
	CreatedAt   time.Time
}
