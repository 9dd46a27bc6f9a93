package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, first_name, last_name, personnel_code, mobile_number, email,
	password_hash, role, expiry_date, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	var role int16
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.PersonnelCode, &u.MobileNumber, &u.Email,
		&u.PasswordHash, &role, &u.ExpiryDate, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	u.Role = entity.Role(role)
	return &u, err
}

// Create persiste un nuevo usuario. Código de personal repetido -> ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.PersonnelCode, u.MobileNumber, u.Email,
		u.PasswordHash, int16(u.Role), u.ExpiryDate, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("código de personal %s: %w", u.PersonnelCode, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return noRows(u, err, "get user")
}

// GetByPersonnelCode usado en login y para validar unicidad al crear.
func (r *UserRepo) GetByPersonnelCode(ctx context.Context, code string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE personnel_code = $1`, code))
	return noRows(u, err, "get user by personnel code")
}

// Update actualiza un usuario existente (sin tocar la contraseña si viene vacía).
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	query := `
		UPDATE users SET first_name = $2, last_name = $3, mobile_number = $4, email = $5,
			password_hash = COALESCE(NULLIF($6, ''), password_hash),
			role = $7, expiry_date = $8, is_active = $9, updated_at = $10
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, u.ID, u.FirstName, u.LastName, u.MobileNumber, u.Email,
		u.PasswordHash, int16(u.Role), u.ExpiryDate, u.IsActive, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("usuario %s: %w", u.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY role, last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	list := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
