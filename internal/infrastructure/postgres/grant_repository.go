package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.GrantRepository = (*GrantRepo)(nil)

// GrantRepo permisos usuario/bodega sobre la tabla user_warehouse_access.
type GrantRepo struct {
	q Querier
}

func NewGrantRepository(q Querier) *GrantRepo {
	return &GrantRepo{q: q}
}

const grantColumns = `id, user_id, warehouse_id, can_view, can_modify, is_active, created_at, updated_at`

func scanGrant(row pgx.Row) (*entity.WarehouseGrant, error) {
	var g entity.WarehouseGrant
	err := row.Scan(&g.ID, &g.UserID, &g.WarehouseID, &g.CanView, &g.CanModify, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

// Get devuelve la fila del par, activa o no.
func (r *GrantRepo) Get(ctx context.Context, userID, warehouseID string) (*entity.WarehouseGrant, error) {
	g, err := scanGrant(r.q.QueryRow(ctx,
		`SELECT `+grantColumns+` FROM user_warehouse_access WHERE user_id = $1 AND warehouse_id = $2`,
		userID, warehouseID))
	return noRows(g, err, "get grant")
}

// Create inserta el permiso. Dos altas concurrentes del mismo par chocan en el índice único.
func (r *GrantRepo) Create(ctx context.Context, g *entity.WarehouseGrant) error {
	_, err := r.q.Exec(ctx, `INSERT INTO user_warehouse_access (`+grantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.UserID, g.WarehouseID, g.CanView, g.CanModify, g.IsActive, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("grant %s-%s: %w", g.UserID, g.WarehouseID, domain.ErrConflict)
		}
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

func (r *GrantRepo) Update(ctx context.Context, g *entity.WarehouseGrant) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE user_warehouse_access SET can_view = $2, can_modify = $3, is_active = $4, updated_at = $5
		WHERE id = $1`,
		g.ID, g.CanView, g.CanModify, g.IsActive, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update grant: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("grant %s: %w", g.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *GrantRepo) list(ctx context.Context, column, id string) ([]*entity.WarehouseGrant, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+grantColumns+` FROM user_warehouse_access WHERE is_active AND `+column+` = $1 ORDER BY created_at`,
		id)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()
	list := []*entity.WarehouseGrant{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

func (r *GrantRepo) ListActiveByUser(ctx context.Context, userID string) ([]*entity.WarehouseGrant, error) {
	return r.list(ctx, "user_id", userID)
}

func (r *GrantRepo) ListActiveByWarehouse(ctx context.Context, warehouseID string) ([]*entity.WarehouseGrant, error) {
	return r.list(ctx, "warehouse_id", warehouseID)
}
