package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
)

// StockAdjustment describes one applied stock movement: Delta is negative for
// a debit, positive for a credit, Remaining the counter value afterwards.
type StockAdjustment struct {
	Container Container
	Delta     int
	Remaining int
}

// debitTx is the conditional debit: decrement the counter only if enough
// stock remains, in one guarded UPDATE. The row-level atomicity of that
// statement is the engine's sole concurrency-control mechanism; concurrent
// debits for the same container serialize at the storage layer.
func debitTx(ctx context.Context, tx pgx.Tx, c Container, qty int) (remaining int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE container_stock
		SET stock = stock - $2, updated_at = now()
		WHERE container = $1 AND stock >= $2
		RETURNING stock`,
		string(c), qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// Guard failed: report what was available.
	var available int
	err = tx.QueryRow(ctx, `SELECT stock FROM container_stock WHERE container = $1`,
		string(c)).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return 0, &InsufficientStockError{Container: c, Available: available, Requested: qty}
}

// creditTx increments the counter unconditionally (restock / cancellation).
func creditTx(ctx context.Context, tx pgx.Tx, c Container, qty int) (remaining int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE container_stock
		SET stock = stock + $2, updated_at = now()
		WHERE container = $1
		RETURNING stock`,
		string(c), qty).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return remaining, err
}

// deductionsTx reads the order's deduction ledger, locking the rows so
// concurrent reconciles of the same order serialize.
func deductionsTx(ctx context.Context, tx pgx.Tx, orderID string) (map[Container]int, error) {
	rows, err := tx.Query(ctx, `
		SELECT container, qty FROM stock_deductions
		WHERE order_id = $1 FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[Container]int{}
	for rows.Next() {
		var c string
		var qty int
		if err := rows.Scan(&c, &qty); err != nil {
			return nil, err
		}
		out[Container(c)] = qty
	}
	return out, rows.Err()
}

type ledgerDelta struct {
	Container Container
	Delta     int
}

// ledgerDeltas computes the per-container adjustments that move the ledger
// from current to target. Containers are visited in a fixed order so any two
// reconciles lock stock rows in the same sequence.
func ledgerDeltas(target, current map[Container]int) []ledgerDelta {
	seen := map[Container]bool{}
	var cs []Container
	for c := range target {
		cs = append(cs, c)
		seen[c] = true
	}
	for c := range current {
		if !seen[c] {
			cs = append(cs, c)
		}
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })

	var out []ledgerDelta
	for _, c := range cs {
		if d := target[c] - current[c]; d != 0 {
			out = append(out, ledgerDelta{Container: c, Delta: d})
		}
	}
	return out
}

// reconcileTx drives the order's deduction ledger to the target level,
// debiting or crediting stock by the difference. Because the ledger records
// the cumulative debited quantity per container, re-applying any sequence of
// status transitions is idempotent: a second cancellation finds delta zero
// and does nothing.
func reconcileTx(ctx context.Context, tx pgx.Tx, orderID string, target map[Container]int) ([]StockAdjustment, error) {
	current, err := deductionsTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	var applied []StockAdjustment
	for _, d := range ledgerDeltas(target, current) {
		var remaining int
		if d.Delta > 0 {
			remaining, err = debitTx(ctx, tx, d.Container, d.Delta)
		} else {
			remaining, err = creditTx(ctx, tx, d.Container, -d.Delta)
		}
		if err != nil {
			return nil, err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_deductions (order_id, container, qty)
			VALUES ($1, $2, $3)
			ON CONFLICT (order_id, container)
			DO UPDATE SET qty = stock_deductions.qty + EXCLUDED.qty`,
			orderID, string(d.Container), d.Delta); err != nil {
			return nil, err
		}
		applied = append(applied, StockAdjustment{
			Container: d.Container, Delta: -d.Delta, Remaining: remaining,
		})
	}
	return applied, nil
}
