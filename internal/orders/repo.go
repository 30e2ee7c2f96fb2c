package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo owns all engine state. Every exported operation runs as one
// request-scoped transaction: either everything it describes is persisted or
// nothing is.
type Repo struct {
	DB         *pgxpool.Pool
	CutoffHour int            // orders at/after this hour roll to the next day
	Loc        *time.Location // the store's single configured timezone
}

type CreateOrderInput struct {
	CustomerID  string
	MopID       string
	ReceivingID string
	Address     AddressChoice
	Lines       []LineInput
}

type CreateOrderResult struct {
	OrderID     string
	Total       decimal.Decimal
	OrderDate   time.Time
	Adjustments []StockAdjustment
}

// CreateOrder validates references, resolves the delivery address, prices the
// lines, assigns the order date and debits stock for every NewGallon line —
// all inside one transaction. Any failure rolls the whole order back,
// including debits already applied for earlier lines.
func (r *Repo) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	var res CreateOrderResult

	if len(in.Lines) == 0 {
		return res, fmt.Errorf("order needs at least one line: %w", ErrValidation)
	}
	for _, l := range in.Lines {
		if l.Qty < 1 {
			return res, fmt.Errorf("quantity must be at least 1 for %s: %w", l.Container, ErrValidation)
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	onFile, err := customerAddress(ctx, tx, in.CustomerID)
	if err != nil {
		return res, err
	}
	if err := refExists(ctx, tx, "modes_of_payment", in.MopID); err != nil {
		return res, fmt.Errorf("mode of payment %s: %w", in.MopID, err)
	}
	if err := refExists(ctx, tx, "receiving_methods", in.ReceivingID); err != nil {
		return res, fmt.Errorf("receiving method %s: %w", in.ReceivingID, err)
	}

	addressID, err := resolveAddress(ctx, tx, in.CustomerID, onFile, in.Address)
	if err != nil {
		return res, err
	}

	now := time.Now()
	orderID := uuid.NewString()
	lines := make([]OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		price, err := unitPrice(ctx, tx, l.Container, l.Category)
		if err != nil {
			return res, err
		}
		lines = append(lines, OrderLine{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Container: l.Container,
			Category:  l.Category,
			Qty:       l.Qty,
			UnitPrice: price,
			Subtotal:  LineSubtotal(price, l.Qty),
		})
	}
	total := OrderTotal(lines)
	orderDate := OrderDateFor(now, r.CutoffHour, r.Loc)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_id, status, payment_status, mop_id,
		                    receiving_id, address_id, total, order_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		orderID, in.CustomerID, string(StatusForApproval), string(PaymentPending),
		in.MopID, in.ReceivingID, addressID, total, orderDate, now)
	if err != nil {
		return res, err
	}
	for _, l := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (id, order_id, container, category, qty, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, l.OrderID, string(l.Container), string(l.Category), l.Qty, l.UnitPrice, l.Subtotal)
		if err != nil {
			return res, err
		}
	}

	adjustments, err := reconcileTx(ctx, tx, orderID, NewGallonQuantities(lines))
	if err != nil {
		return res, err
	}

	if err := tx.Commit(ctx); err != nil {
		return res, err
	}
	return CreateOrderResult{
		OrderID:     orderID,
		Total:       total,
		OrderDate:   orderDate,
		Adjustments: adjustments,
	}, nil
}

func customerAddress(ctx context.Context, tx pgx.Tx, customerID string) (string, error) {
	var addr *string
	err := tx.QueryRow(ctx, `SELECT address FROM customers WHERE id = $1`, customerID).Scan(&addr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
		}
		return "", err
	}
	if addr == nil {
		return "", nil
	}
	return *addr, nil
}

func refExists(ctx context.Context, tx pgx.Tx, table, id string) error {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM `+table+` WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// resolveAddress returns the delivery-address id for the order, reusing the
// row for this (customer, text) pair when one exists.
func resolveAddress(ctx context.Context, tx pgx.Tx, customerID, onFile string, choice AddressChoice) (string, error) {
	text := strings.TrimSpace(choice.Address)
	if choice.UseOnFile {
		text = strings.TrimSpace(onFile)
		if text == "" {
			return "", fmt.Errorf("customer has no address on file: %w", ErrValidation)
		}
	} else if text == "" {
		return "", fmt.Errorf("delivery address is required: %w", ErrValidation)
	}

	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO delivery_addresses (id, customer_id, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, address) DO UPDATE SET address = EXCLUDED.address
		RETURNING id`,
		uuid.NewString(), customerID, text).Scan(&id)
	return id, err
}

func unitPrice(ctx context.Context, tx pgx.Tx, c Container, cat Category) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT price FROM container_prices WHERE container = $1 AND category = $2`,
		string(c), string(cat)).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return price, fmt.Errorf("no price for %s/%s: %w", c, cat, ErrNotFound)
	}
	return price, err
}

// GetOrder returns the order and its lines.
func (r *Repo) GetOrder(ctx context.Context, orderID string) (OrderSnapshot, error) {
	var snap OrderSnapshot
	var status, payment string
	err := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, status, payment_status, mop_id, receiving_id,
		       address_id, total, order_date, created_at, updated_at
		FROM orders WHERE id = $1`, orderID).Scan(
		&snap.Order.ID, &snap.Order.CustomerID, &status, &payment,
		&snap.Order.MopID, &snap.Order.ReceivingID, &snap.Order.AddressID,
		&snap.Order.Total, &snap.Order.OrderDate, &snap.Order.CreatedAt, &snap.Order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return snap, err
	}
	snap.Order.Status = Status(status)
	snap.Order.PaymentStatus = PaymentStatus(payment)

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, container, category, qty, unit_price, subtotal
		FROM order_lines WHERE order_id = $1 ORDER BY container, category`, orderID)
	if err != nil {
		return snap, err
	}
	defer rows.Close()
	for rows.Next() {
		var l OrderLine
		var c, cat string
		if err := rows.Scan(&l.ID, &l.OrderID, &c, &cat, &l.Qty, &l.UnitPrice, &l.Subtotal); err != nil {
			return snap, err
		}
		l.Container, l.Category = Container(c), Category(cat)
		snap.Lines = append(snap.Lines, l)
	}
	return snap, rows.Err()
}

// ListStock returns the current counter for every container type.
func (r *Repo) ListStock(ctx context.Context) ([]StockLevel, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT container, stock, updated_at FROM container_stock ORDER BY container`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockLevel
	for rows.Next() {
		var s StockLevel
		var c string
		if err := rows.Scan(&c, &s.Stock, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Container = Container(c)
		out = append(out, s)
	}
	return out, rows.Err()
}
