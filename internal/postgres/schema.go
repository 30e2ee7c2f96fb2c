package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id      VARCHAR(36) PRIMARY KEY,
		name    TEXT NOT NULL,
		address TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS modes_of_payment (
		id   VARCHAR(36) PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS receiving_methods (
		id   VARCHAR(36) PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS container_prices (
		container VARCHAR(16)   NOT NULL,
		category  VARCHAR(16)   NOT NULL,
		price     NUMERIC(10,2) NOT NULL,
		PRIMARY KEY (container, category)
	)`,
	`CREATE TABLE IF NOT EXISTS delivery_addresses (
		id          VARCHAR(36) PRIMARY KEY,
		customer_id VARCHAR(36) NOT NULL REFERENCES customers(id),
		address     TEXT        NOT NULL,
		UNIQUE (customer_id, address)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id             VARCHAR(36)   PRIMARY KEY,
		customer_id    VARCHAR(36)   NOT NULL REFERENCES customers(id),
		status         VARCHAR(20)   NOT NULL,
		payment_status VARCHAR(20)   NOT NULL,
		mop_id         VARCHAR(36)   NOT NULL REFERENCES modes_of_payment(id),
		receiving_id   VARCHAR(36)   NOT NULL REFERENCES receiving_methods(id),
		address_id     VARCHAR(36)   NOT NULL REFERENCES delivery_addresses(id),
		total          NUMERIC(10,2) NOT NULL,
		order_date     DATE          NOT NULL,
		created_at     TIMESTAMPTZ   NOT NULL,
		updated_at     TIMESTAMPTZ   NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id         VARCHAR(36)   PRIMARY KEY,
		order_id   VARCHAR(36)   NOT NULL REFERENCES orders(id),
		container  VARCHAR(16)   NOT NULL,
		category   VARCHAR(16)   NOT NULL,
		qty        INT           NOT NULL CHECK (qty > 0),
		unit_price NUMERIC(10,2) NOT NULL,
		subtotal   NUMERIC(10,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS container_stock (
		container  VARCHAR(16) PRIMARY KEY,
		stock      INT         NOT NULL CHECK (stock >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS stock_deductions (
		order_id  VARCHAR(36) NOT NULL REFERENCES orders(id),
		container VARCHAR(16) NOT NULL,
		qty       INT         NOT NULL,
		PRIMARY KEY (order_id, container)
	)`,
}

var seeds = []string{
	`INSERT INTO container_stock (container, stock) VALUES
		('SLIM', 0), ('ROUND', 0), ('WILKINS', 0)
		ON CONFLICT (container) DO NOTHING`,
	`INSERT INTO container_prices (container, category, price) VALUES
		('SLIM',    'REFILL',     25.00),
		('ROUND',   'REFILL',     25.00),
		('WILKINS', 'REFILL',     35.00),
		('SLIM',    'NEW_GALLON', 225.00),
		('ROUND',   'NEW_GALLON', 245.00),
		('WILKINS', 'NEW_GALLON', 275.00)
		ON CONFLICT (container, category) DO NOTHING`,
}

// EnsureSchema creates the engine's tables and seeds the stock counters and
// the default price table on first run. Existing rows are left alone, so
// price updates made by staff survive restarts.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, q := range append(append([]string{}, ddl...), seeds...) {
		if _, err := pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
