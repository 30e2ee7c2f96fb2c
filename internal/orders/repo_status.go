package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type StatusChangeResult struct {
	OrderID       string
	From          Status
	To            Status
	PaymentStatus PaymentStatus
	Adjustments   []StockAdjustment
}

// ChangeStatus moves an order to the target lifecycle state. The order row is
// locked, the transition checked against the state machine, the deduction
// ledger reconciled to the target state's required level, and the derived
// payment status written — one transaction. If reconciliation fails (say,
// re-confirming after the stock was taken by other orders) the order keeps
// its prior state.
func (r *Repo) ChangeStatus(ctx context.Context, orderID string, target Status) (StatusChangeResult, error) {
	var res StatusChangeResult

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	from, _, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return res, err
	}
	if !CanTransition(from, target) {
		return res, &StateTransitionError{From: from, To: target}
	}

	adjustments, err := r.applyTransition(ctx, tx, orderID, target)
	if err != nil {
		return res, err
	}
	if err := tx.Commit(ctx); err != nil {
		return res, err
	}
	return StatusChangeResult{
		OrderID:       orderID,
		From:          from,
		To:            target,
		PaymentStatus: PaymentStatusFor(target),
		Adjustments:   adjustments,
	}, nil
}

// Cancel is the cancellation path: ownership check, eligibility check, then
// the regular transition machinery with target Cancelled. Reconciliation
// credits back exactly what the ledger shows as debited, so a repeated
// cancellation finds nothing left to credit.
func (r *Repo) Cancel(ctx context.Context, orderID string, actor Actor) (StatusChangeResult, error) {
	var res StatusChangeResult

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	from, owner, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return res, err
	}
	if !actor.Staff && actor.CustomerID != owner {
		return res, fmt.Errorf("order %s belongs to another customer: %w", orderID, ErrUnauthorized)
	}
	if !Cancellable(from) {
		return res, &StateTransitionError{From: from, To: StatusCancelled}
	}

	adjustments, err := r.applyTransition(ctx, tx, orderID, StatusCancelled)
	if err != nil {
		return res, err
	}
	if err := tx.Commit(ctx); err != nil {
		return res, err
	}
	return StatusChangeResult{
		OrderID:       orderID,
		From:          from,
		To:            StatusCancelled,
		PaymentStatus: PaymentCancelled,
		Adjustments:   adjustments,
	}, nil
}

func lockOrder(ctx context.Context, tx pgx.Tx, orderID string) (Status, string, error) {
	var status, owner string
	err := tx.QueryRow(ctx, `
		SELECT status, customer_id FROM orders WHERE id = $1 FOR UPDATE`,
		orderID).Scan(&status, &owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return "", "", err
	}
	return Status(status), owner, nil
}

// applyTransition reconciles stock to the target state's required level and
// writes the new status with its derived payment status. Caller holds the
// order row lock and commits.
func (r *Repo) applyTransition(ctx context.Context, tx pgx.Tx, orderID string, target Status) ([]StockAdjustment, error) {
	lines, err := orderLinesTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	adjustments, err := reconcileTx(ctx, tx, orderID, RequiredDeduction(target, lines))
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
		UPDATE orders SET status = $2, payment_status = $3, updated_at = $4
		WHERE id = $1`,
		orderID, string(target), string(PaymentStatusFor(target)), time.Now())
	if err != nil {
		return nil, err
	}
	return adjustments, nil
}

func orderLinesTx(ctx context.Context, tx pgx.Tx, orderID string) ([]OrderLine, error) {
	rows, err := tx.Query(ctx, `
		SELECT container, category, qty FROM order_lines WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderLine
	for rows.Next() {
		var l OrderLine
		var c, cat string
		if err := rows.Scan(&c, &cat, &l.Qty); err != nil {
			return nil, err
		}
		l.Container, l.Category = Container(c), Category(cat)
		out = append(out, l)
	}
	return out, rows.Err()
}
