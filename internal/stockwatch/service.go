package stockwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/aquadrop/refill-orders/internal/kafka"
	"github.com/aquadrop/refill-orders/internal/orders"
	"github.com/aquadrop/refill-orders/internal/redisx"
)

// Service watches stock-adjustment events, mirrors the remaining levels into
// redis for dashboards, and warns when a counter drops below the threshold.
type Service struct {
	Redis     *redis.Client
	Log       *zap.Logger
	Threshold int
	Name      string // dedup namespace
}

// HandleStockAdjusted is installed as the consumer handler.
func (s *Service) HandleStockAdjusted(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventStockAdjusted {
		return nil // ignore
	}

	// dedup via redis (event_id); adjustments must be counted once
	dkey := fmt.Sprintf(redisx.KeyDedup, s.Name, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.StockAdjustedPayload](env.Payload)
	if err != nil {
		return err
	}

	for _, a := range p.Adjustments {
		s.mirror(ctx, a)
		if a.Remaining < s.Threshold {
			s.Log.Warn("low stock",
				zap.String("container", a.Container),
				zap.Int("remaining", a.Remaining),
				zap.Int("threshold", s.Threshold),
				zap.String("order_id", p.OrderID),
			)
		}
	}
	return nil
}

func (s *Service) mirror(ctx context.Context, a orders.StockAdjustmentPayload) {
	key := fmt.Sprintf(redisx.KeyStockLevel, a.Container)
	_ = s.Redis.Set(ctx, key, strconv.Itoa(a.Remaining), 0).Err()
}
