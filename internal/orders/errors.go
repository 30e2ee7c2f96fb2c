package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("not authorized")
)

// InsufficientStockError reports a conditional debit that could not be
// satisfied. Available is the counter value observed at the time of failure.
type InsufficientStockError struct {
	Container Container
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.Container, e.Available, e.Requested)
}

// StateTransitionError reports a lifecycle transition the state machine does
// not define.
type StateTransitionError struct {
	From Status
	To   Status
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
