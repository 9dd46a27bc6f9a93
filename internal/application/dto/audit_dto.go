package dto

import "time"

// AuditQuery filtros opcionales para GET /api/audit (query string).
type AuditQuery struct {
	From      *time.Time `query:"from"`
	To        *time.Time `query:"to"`
	TableName string     `query:"table_name"`
	Action    string     `query:"action"`
	UserID    string     `query:"user_id"`
	Limit     int        `query:"limit"`
}

// AuditLogResponse entrada de bitácora.
type AuditLogResponse struct {
	ID          string    `json:"id"`
	TableName   string    `json:"table_name"`
	Action      string    `json:"action"`
	RecordID    string    `json:"record_id"`
	Description string    `json:"description"`
	OldValues   *string   `json:"old_values,omitempty"`
	NewValues   *string   `json:"new_values,omitempty"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
