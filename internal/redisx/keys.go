package redisx

import "time"

const (
	// Cached order snapshot: order:{order_id} -> JSON snapshot
	KeyOrderSnapshot = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Mirrored stock level for dashboards: stock:{container} -> remaining
	KeyStockLevel = "stock:%s"
)

var (
	TTLSnapshot = 5 * time.Minute
	TTLDedup    = 48 * time.Hour
)
