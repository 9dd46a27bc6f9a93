package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, brand_id, name, name2, primary_code, code2, code3,
	total_stock, reorder_point, safety_stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.BrandID, &p.Name, &p.Name2, &p.PrimaryCode, &p.Code2, &p.Code3,
		&p.TotalStock, &p.ReorderPoint, &p.SafetyStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

// GetByID obtiene un producto por ID; (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	return noRows(p, err, "get product")
}

func (r *ProductRepo) query(ctx context.Context, query string) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := []*entity.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ProductRepo) ListActive(ctx context.Context) ([]*entity.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
}

func (r *ProductRepo) ListLowStock(ctx context.Context) ([]*entity.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products
		WHERE is_active AND total_stock <= reorder_point ORDER BY total_stock, name`)
}

// AddTotalStock suma delta en la propia sentencia; no hay lectura previa que pueda quedar obsoleta.
func (r *ProductRepo) AddTotalStock(ctx context.Context, productID string, delta int64) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET total_stock = total_stock + $2, updated_at = now() WHERE id = $1`,
		productID, delta)
	if err != nil {
		return fmt.Errorf("add total stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// LockForUpdate toma el lock de fila del producto. Un AddTotalStock de otra transacción
// espera hasta el commit; las sentencias siguientes de esta ven lo ya confirmado.
func (r *ProductRepo) LockForUpdate(ctx context.Context, productID string) error {
	var id string
	err := r.q.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock product: %w", err)
	}
	return nil
}

func (r *ProductRepo) SetTotalStock(ctx context.Context, productID string, total int64) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET total_stock = $2, updated_at = now() WHERE id = $1`,
		productID, total)
	if err != nil {
		return fmt.Errorf("set total stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// Update actualiza datos descriptivos y estado. total_stock solo cambia por AddTotalStock/SetTotalStock.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET brand_id = $2, name = $3, name2 = $4, primary_code = $5, code2 = $6, code3 = $7,
			reorder_point = $8, safety_stock = $9, is_active = $10, updated_at = $11
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, p.ID, p.BrandID, p.Name, p.Name2, p.PrimaryCode, p.Code2, p.Code3,
		p.ReorderPoint, p.SafetyStock, p.IsActive, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("producto %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}
