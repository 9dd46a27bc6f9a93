package dto

import "time"

// GrantAccessRequest body para POST /api/access/grants.
type GrantAccessRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	CanView     bool   `json:"can_view"`
	CanModify   bool   `json:"can_modify"`
}

// GrantResponse permiso activo con nombres de usuario y bodega.
type GrantResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	WarehouseID   string    `json:"warehouse_id"`
	WarehouseName string    `json:"warehouse_name"`
	CanView       bool      `json:"can_view"`
	CanModify     bool      `json:"can_modify"`
	IsActive      bool      `json:"is_active"`
	UpdatedAt     time.Time `json:"updated_at"`
}
