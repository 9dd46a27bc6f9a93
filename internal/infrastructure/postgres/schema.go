package postgres

import (
	"context"
	"fmt"
)

// schema DDL idempotente. Los índices únicos sostienen las invariantes de unicidad:
// una fila de stock activa por (producto, bodega) y un grant por (usuario, bodega).
const schema = `
CREATE TABLE IF NOT EXISTS brands (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS warehouses (
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id            TEXT PRIMARY KEY,
	brand_id      TEXT NOT NULL REFERENCES brands(id),
	name          TEXT NOT NULL,
	name2         TEXT NOT NULL DEFAULT '',
	primary_code  TEXT NOT NULL DEFAULT '',
	code2         TEXT NOT NULL DEFAULT '',
	code3         TEXT NOT NULL DEFAULT '',
	total_stock   BIGINT NOT NULL DEFAULT 0,
	reorder_point BIGINT NOT NULL DEFAULT 0,
	safety_stock  BIGINT NOT NULL DEFAULT 0,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cost_centers (
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	personnel_code TEXT NOT NULL UNIQUE,
	mobile_number  TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	password_hash  TEXT NOT NULL,
	role           SMALLINT NOT NULL,
	expiry_date    TIMESTAMPTZ,
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stock (
	id           TEXT PRIMARY KEY,
	product_id   TEXT NOT NULL REFERENCES products(id),
	brand_id     TEXT NOT NULL DEFAULT '',
	warehouse_id TEXT NOT NULL REFERENCES warehouses(id),
	quantity     BIGINT NOT NULL CHECK (quantity >= 0),
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	version      BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS stock_active_key ON stock (product_id, warehouse_id) WHERE is_active;
CREATE INDEX IF NOT EXISTS stock_warehouse_idx ON stock (warehouse_id) WHERE is_active;

CREATE TABLE IF NOT EXISTS user_warehouse_access (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL REFERENCES users(id),
	warehouse_id TEXT NOT NULL REFERENCES warehouses(id),
	can_view     BOOLEAN NOT NULL DEFAULT FALSE,
	can_modify   BOOLEAN NOT NULL DEFAULT FALSE,
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, warehouse_id)
);

CREATE TABLE IF NOT EXISTS inventory_transactions (
	id             TEXT PRIMARY KEY,
	product_id     TEXT NOT NULL REFERENCES products(id),
	warehouse_id   TEXT NOT NULL REFERENCES warehouses(id),
	quantity       BIGINT NOT NULL CHECK (quantity > 0),
	type           TEXT NOT NULL CHECK (type IN ('In', 'Out')),
	cost_center_id TEXT REFERENCES cost_centers(id),
	user_id        TEXT NOT NULL,
	note           TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS inventory_transactions_created_idx ON inventory_transactions (created_at DESC);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          TEXT PRIMARY KEY,
	table_name  TEXT NOT NULL,
	action      TEXT NOT NULL,
	record_id   TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	old_values  JSON,
	new_values  JSON,
	user_id     TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_logs_created_idx ON audit_logs (created_at DESC);
`

// Migrate aplica el esquema. Es seguro ejecutarlo en cada arranque.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrar esquema: %w", err)
	}
	return nil
}
