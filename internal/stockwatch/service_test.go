package stockwatch

import (
	"context"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	kafkax "github.com/aquadrop/refill-orders/internal/kafka"
	"github.com/aquadrop/refill-orders/internal/orders"
)

func TestHandleStockAdjustedIgnoresOtherEvents(t *testing.T) {
	svc := &Service{Log: zap.NewNop(), Threshold: 10, Name: "test"}

	env := orders.Envelope{
		EventID:   "ev-1",
		EventType: orders.EventStatusChanged,
		Payload:   kafkax.MustMarshal(orders.StatusChangedPayload{OrderID: "ord-1"}),
	}
	m := kafkago.Message{Value: kafkax.MustMarshal(env)}

	// returns nil without touching redis, so the offset commits
	require.NoError(t, svc.HandleStockAdjusted(context.Background(), m))
}

func TestHandleStockAdjustedBadEnvelope(t *testing.T) {
	svc := &Service{Log: zap.NewNop(), Threshold: 10, Name: "test"}
	m := kafkago.Message{Value: []byte("{not json")}
	require.Error(t, svc.HandleStockAdjusted(context.Background(), m))
}
