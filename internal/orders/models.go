package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Container is the canonical container-type enum. Adapter layers translate
// whatever ids they receive into these before the engine sees them.
type Container string

const (
	ContainerSlim    Container = "SLIM"
	ContainerRound   Container = "ROUND"
	ContainerWilkins Container = "WILKINS"
)

// Containers lists every known container type, in seed order.
var Containers = []Container{ContainerSlim, ContainerRound, ContainerWilkins}

func ParseContainer(s string) (Container, bool) {
	switch Container(s) {
	case ContainerSlim, ContainerRound, ContainerWilkins:
		return Container(s), true
	}
	return "", false
}

// Category distinguishes a refill of a customer-owned container from the
// purchase of a new filled one. Only NewGallon touches stock.
type Category string

const (
	CategoryRefill    Category = "REFILL"
	CategoryNewGallon Category = "NEW_GALLON"
)

func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryRefill, CategoryNewGallon:
		return Category(s), true
	}
	return "", false
}

type Order struct {
	ID            string
	CustomerID    string
	Status        Status
	PaymentStatus PaymentStatus
	MopID         string
	ReceivingID   string
	AddressID     string
	Total         decimal.Decimal
	OrderDate     time.Time // calendar date the order is scheduled for
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderLine struct {
	ID        string
	OrderID   string
	Container Container
	Category  Category
	Qty       int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

type DeliveryAddress struct {
	ID         string
	CustomerID string
	Address    string
}

type StockLevel struct {
	Container Container
	Stock     int
	UpdatedAt time.Time
}

// LineInput is one requested line of a new order, before pricing.
type LineInput struct {
	Container Container
	Category  Category
	Qty       int
}

// AddressChoice selects between the customer's on-file address and an
// explicit one supplied with the order.
type AddressChoice struct {
	UseOnFile bool
	Address   string
}

// Actor is the already-authenticated identity performing a request. Staff
// actors may cancel any order; customers only their own.
type Actor struct {
	CustomerID string
	Staff      bool
}

// OrderSnapshot is the read model returned to callers: the order plus its
// lines.
type OrderSnapshot struct {
	Order Order
	Lines []OrderLine
}

// LineSubtotal computes unit price x quantity.
func LineSubtotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// OrderTotal sums line subtotals. The order row stores this value; the
// invariant total == sum(subtotals) holds at all times.
func OrderTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	return total
}

// NewGallonQuantities aggregates the requested NewGallon quantity per
// container. This is the full deduction level the ledger reconciles to for
// every non-cancelled state.
func NewGallonQuantities(lines []OrderLine) map[Container]int {
	out := map[Container]int{}
	for _, l := range lines {
		if l.Category == CategoryNewGallon {
			out[l.Container] += l.Qty
		}
	}
	return out
}
