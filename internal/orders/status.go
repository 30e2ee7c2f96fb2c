package orders

type Status string

const (
	StatusForApproval    Status = "FOR_APPROVAL"
	StatusConfirmed      Status = "CONFIRMED"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusReadyForPickup Status = "READY_FOR_PICKUP"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusForApproval, StatusConfirmed, StatusInProgress,
		StatusReadyForPickup, StatusOutForDelivery, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// Cancelled orders may be re-confirmed by staff; the ledger reconciliation
// re-debits stock at that point, so the transition is safe to allow.
var validNext = map[Status]map[Status]bool{
	StatusForApproval:    {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:      {StatusInProgress: true, StatusCancelled: true},
	StatusInProgress:     {StatusReadyForPickup: true, StatusOutForDelivery: true},
	StatusReadyForPickup: {StatusCompleted: true},
	StatusOutForDelivery: {StatusCompleted: true},
	StatusCompleted:      {},
	StatusCancelled:      {StatusConfirmed: true},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// cancellable is the set of states an owner or staff member may cancel from.
var cancellable = map[Status]bool{
	StatusForApproval: true,
	StatusConfirmed:   true,
}

func Cancellable(from Status) bool {
	return cancellable[from]
}

// PaymentStatusFor derives payment status from order status. It is never set
// independently, so the two can't drift.
func PaymentStatusFor(s Status) PaymentStatus {
	switch s {
	case StatusCompleted:
		return PaymentPaid
	case StatusCancelled:
		return PaymentCancelled
	default:
		return PaymentPending
	}
}

// RequiredDeduction is the stock-deduction level an order must sit at in a
// given state: its full NewGallon quantities everywhere except Cancelled,
// which requires zero (everything credited back).
func RequiredDeduction(s Status, lines []OrderLine) map[Container]int {
	if s == StatusCancelled {
		return map[Container]int{}
	}
	return NewGallonQuantities(lines)
}
