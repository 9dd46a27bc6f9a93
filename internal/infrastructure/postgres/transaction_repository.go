package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo movimientos de inventario (pool o tx). Solo inserción y lectura.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

const transactionColumns = `id, product_id, warehouse_id, quantity, type, cost_center_id, user_id, note, created_at`

func scanTransaction(row pgx.Row) (*entity.InventoryTransaction, error) {
	var t entity.InventoryTransaction
	var typ string
	err := row.Scan(&t.ID, &t.ProductID, &t.WarehouseID, &t.Quantity, &typ, &t.CostCenterID,
		&t.UserID, &t.Note, &t.CreatedAt)
	t.Type = entity.TransactionType(typ)
	return &t, err
}

// Create persiste un movimiento de inventario.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.InventoryTransaction) error {
	_, err := r.q.Exec(ctx, `INSERT INTO inventory_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.ProductID, t.WarehouseID, t.Quantity, string(t.Type), t.CostCenterID,
		t.UserID, t.Note, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create inventory transaction: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.InventoryTransaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM inventory_transactions WHERE id = $1`, id))
	return noRows(t, err, "get transaction")
}

// List movimientos más recientes primero, con filtros opcionales.
func (r *TransactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]*entity.InventoryTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions WHERE TRUE`
	args := []any{}
	pos := 1
	if f.Restricted || len(f.WarehouseIDs) > 0 {
		query += fmt.Sprintf(" AND warehouse_id = ANY($%d)", pos)
		args = append(args, f.WarehouseIDs)
		pos++
	}
	if f.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", pos)
		args = append(args, f.Limit)
		pos++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", pos)
		args = append(args, f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	list := []*entity.InventoryTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
