package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `id, product_id, brand_id, warehouse_id, quantity, is_active, version, created_at, updated_at`

func scanStock(row pgx.Row) (*entity.Stock, error) {
	var s entity.Stock
	err := row.Scan(&s.ID, &s.ProductID, &s.BrandID, &s.WarehouseID, &s.Quantity,
		&s.IsActive, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

// Get obtiene la fila activa de un producto en una bodega.
func (r *StockRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stock
		WHERE product_id = $1 AND warehouse_id = $2 AND is_active`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, warehouseID))
	return noRows(s, err, "get stock")
}

// GetForUpdate obtiene la fila activa y la bloquea hasta el fin de la transacción.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stock
		WHERE product_id = $1 AND warehouse_id = $2 AND is_active
		FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, warehouseID))
	return noRows(s, err, "get stock for update")
}

// Create inserta una fila nueva. Otra fila activa para la misma clave es conflicto.
func (r *StockRepo) Create(ctx context.Context, s *entity.Stock) error {
	query := `INSERT INTO stock (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query, s.ID, s.ProductID, s.BrandID, s.WarehouseID, s.Quantity,
		s.IsActive, s.Version, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("stock %s: %w", s.Key(), domain.ErrConflict)
		}
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}

// Update persiste cantidad, estado y versión de una fila existente.
func (r *StockRepo) Update(ctx context.Context, s *entity.Stock) error {
	query := `UPDATE stock SET quantity = $2, is_active = $3, version = $4, updated_at = $5
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, s.ID, s.Quantity, s.IsActive, s.Version, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("stock %s: %w", s.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *StockRepo) list(ctx context.Context, where string, arg string) ([]*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE is_active AND ` + where + ` ORDER BY warehouse_id, product_id`
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	list := []*entity.Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Stock, error) {
	return r.list(ctx, "warehouse_id = $1", warehouseID)
}

func (r *StockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Stock, error) {
	return r.list(ctx, "product_id = $1", productID)
}

// SumActiveByProduct suma las cantidades activas del producto (reconstrucción del total).
func (r *StockRepo) SumActiveByProduct(ctx context.Context, productID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM stock WHERE product_id = $1 AND is_active`,
		productID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum stock: %w", err)
	}
	return total, nil
}

func (r *StockRepo) exists(ctx context.Context, query string, arg string) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("stock exists: %w", err)
	}
	return ok, nil
}

func (r *StockRepo) HasPositiveInWarehouse(ctx context.Context, warehouseID string) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM stock WHERE warehouse_id = $1 AND is_active AND quantity > 0)`,
		warehouseID)
}

// HasPositiveForBrand resuelve la marca vía products para no depender del brand_id copiado en stock.
func (r *StockRepo) HasPositiveForBrand(ctx context.Context, brandID string) (bool, error) {
	return r.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM stock s JOIN products p ON p.id = s.product_id
			WHERE p.brand_id = $1 AND s.is_active AND s.quantity > 0
		)`, brandID)
}
