package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var (
	_ repository.WarehouseRepository  = (*WarehouseRepo)(nil)
	_ repository.BrandRepository      = (*BrandRepo)(nil)
	_ repository.CostCenterRepository = (*CostCenterRepo)(nil)
)

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

const warehouseColumns = `id, code, name, address, phone, is_active, created_at, updated_at`

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := row.Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.Phone, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	return &w, err
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id))
	return noRows(w, err, "get warehouse")
}

func (r *WarehouseRepo) GetForShare(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1 FOR SHARE`, id))
	return noRows(w, err, "get warehouse for share")
}

func (r *WarehouseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1 FOR UPDATE`, id))
	return noRows(w, err, "get warehouse for update")
}

func (r *WarehouseRepo) ListActive(ctx context.Context) ([]*entity.Warehouse, error) {
	rows, err := r.q.Query(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	list := []*entity.Warehouse{}
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// Update actualiza una bodega existente.
func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	query := `
		UPDATE warehouses SET code = $2, name = $3, address = $4, phone = $5, is_active = $6, updated_at = $7
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, w.ID, w.Code, w.Name, w.Address, w.Phone, w.IsActive, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("bodega %s: %w", w.ID, domain.ErrNotFound)
	}
	return nil
}

// ─── Marcas ──────────────────────────────────────────────────────────────────

type BrandRepo struct {
	q Querier
}

func NewBrandRepository(q Querier) *BrandRepo {
	return &BrandRepo{q: q}
}

const brandColumns = `id, name, description, is_active, created_at, updated_at`

func scanBrand(row pgx.Row) (*entity.Brand, error) {
	var b entity.Brand
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *BrandRepo) GetByID(ctx context.Context, id string) (*entity.Brand, error) {
	b, err := scanBrand(r.q.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE id = $1`, id))
	return noRows(b, err, "get brand")
}

func (r *BrandRepo) GetForShare(ctx context.Context, id string) (*entity.Brand, error) {
	b, err := scanBrand(r.q.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE id = $1 FOR SHARE`, id))
	return noRows(b, err, "get brand for share")
}

func (r *BrandRepo) GetForUpdate(ctx context.Context, id string) (*entity.Brand, error) {
	b, err := scanBrand(r.q.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE id = $1 FOR UPDATE`, id))
	return noRows(b, err, "get brand for update")
}

func (r *BrandRepo) ListActive(ctx context.Context) ([]*entity.Brand, error) {
	rows, err := r.q.Query(ctx, `SELECT `+brandColumns+` FROM brands WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()
	list := []*entity.Brand{}
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (r *BrandRepo) Update(ctx context.Context, b *entity.Brand) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE brands SET name = $2, description = $3, is_active = $4, updated_at = $5 WHERE id = $1`,
		b.ID, b.Name, b.Description, b.IsActive, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update brand: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("marca %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

// ─── Centros de costo ────────────────────────────────────────────────────────

type CostCenterRepo struct {
	q Querier
}

func NewCostCenterRepository(q Querier) *CostCenterRepo {
	return &CostCenterRepo{q: q}
}

func (r *CostCenterRepo) GetByID(ctx context.Context, id string) (*entity.CostCenter, error) {
	var cc entity.CostCenter
	err := r.q.QueryRow(ctx,
		`SELECT id, code, name, is_active, created_at, updated_at FROM cost_centers WHERE id = $1`, id,
	).Scan(&cc.ID, &cc.Code, &cc.Name, &cc.IsActive, &cc.CreatedAt, &cc.UpdatedAt)
	return noRows(&cc, err, "get cost center")
}
