package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo bitácora append-only; los snapshots se guardan como JSON sin normalizar.
type AuditLogRepo struct {
	q Querier
}

func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

const auditColumns = `id, table_name, action, record_id, description, old_values, new_values, user_id, created_at`

func (r *AuditLogRepo) Create(ctx context.Context, e *entity.AuditLog) error {
	_, err := r.q.Exec(ctx, `INSERT INTO audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6::json, $7::json, $8, $9)`,
		e.ID, e.TableName, string(e.Action), e.RecordID, e.Description, e.OldValues, e.NewValues,
		e.UserID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List filtros conjuntivos; más reciente primero.
func (r *AuditLogRepo) List(ctx context.Context, f repository.AuditFilter) ([]*entity.AuditLog, error) {
	query := `SELECT id, table_name, action, record_id, description, old_values::text, new_values::text, user_id, created_at
		FROM audit_logs WHERE TRUE`
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if f.TableName != "" {
		add("table_name = $%d", f.TableName)
	}
	if f.Action != "" {
		add("action = $%d", string(f.Action))
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	list := []*entity.AuditLog{}
	for rows.Next() {
		var e entity.AuditLog
		var action string
		if err := rows.Scan(&e.ID, &e.TableName, &action, &e.RecordID, &e.Description,
			&e.OldValues, &e.NewValues, &e.UserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		e.Action = entity.AuditAction(action)
		list = append(list, &e)
	}
	return list, rows.Err()
}
