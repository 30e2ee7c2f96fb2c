package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderAccepted  = "OrderAccepted"
	EventStatusChanged  = "OrderStatusChanged"
	EventOrderCancelled = "OrderCancelled"
	EventStockAdjusted  = "StockAdjusted"
)

type Envelope struct {
	EventID       string          `json:"event_id"` // uuid
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "refill-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload types per event ----

type LinePayload struct {
	Container string `json:"container"`
	Category  string `json:"category"`
	Qty       int    `json:"qty"`
}

type OrderAcceptedPayload struct {
	OrderID    string        `json:"order_id"`
	CustomerID string        `json:"customer_id"`
	Lines      []LinePayload `json:"lines"`
	Total      string        `json:"total"`
	OrderDate  string        `json:"order_date"` // YYYY-MM-DD
}

type StatusChangedPayload struct {
	OrderID       string `json:"order_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	PaymentStatus string `json:"payment_status"`
}

type StockAdjustedPayload struct {
	OrderID     string                   `json:"order_id"`
	Adjustments []StockAdjustmentPayload `json:"adjustments"`
}

type StockAdjustmentPayload struct {
	Container string `json:"container"`
	Delta     int    `json:"delta"` // negative = debit
	Remaining int    `json:"remaining"`
}

func ToStockAdjustedPayload(orderID string, adj []StockAdjustment) StockAdjustedPayload {
	p := StockAdjustedPayload{OrderID: orderID}
	for _, a := range adj {
		p.Adjustments = append(p.Adjustments, StockAdjustmentPayload{
			Container: string(a.Container), Delta: a.Delta, Remaining: a.Remaining,
		})
	}
	return p
}
