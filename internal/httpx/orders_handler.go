package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/aquadrop/refill-orders/internal/kafka"
	"github.com/aquadrop/refill-orders/internal/orders"
	"github.com/aquadrop/refill-orders/internal/redisx"
)

// OrderService is the engine surface the adapter calls. *orders.Repo
// implements it; tests substitute a stub.
type OrderService interface {
	CreateOrder(ctx context.Context, in orders.CreateOrderInput) (orders.CreateOrderResult, error)
	ChangeStatus(ctx context.Context, orderID string, target orders.Status) (orders.StatusChangeResult, error)
	Cancel(ctx context.Context, orderID string, actor orders.Actor) (orders.StatusChangeResult, error)
	GetOrder(ctx context.Context, orderID string) (orders.OrderSnapshot, error)
	ListStock(ctx context.Context) ([]orders.StockLevel, error)
}

// Publisher matches *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Service OrderService
	Redis   *redis.Client // optional snapshot cache
	Name    string        // producer name stamped on events

	PubAccepted Publisher
	PubStatus   Publisher
	PubStock    Publisher
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Patch("/orders/{id}/status", h.changeStatus)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Get("/stock", h.listStock)
}

// ---- request/response shapes ----

type lineReq struct {
	Container string `json:"container"`
	Category  string `json:"category"`
	Qty       int    `json:"qty"`
}

type createOrderReq struct {
	CustomerID       string    `json:"customer_id"`
	MopID            string    `json:"mop_id"`
	ReceivingID      string    `json:"receiving_method_id"`
	UseOnFileAddress bool      `json:"use_onfile_address"`
	Address          string    `json:"address,omitempty"`
	Lines            []lineReq `json:"lines"`
}

type createOrderResp struct {
	OrderID   string `json:"order_id"`
	Total     string `json:"total"`
	OrderDate string `json:"order_date"`
}

type changeStatusReq struct {
	Status string `json:"status"`
}

type statusResp struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type lineResp struct {
	Container string `json:"container"`
	Category  string `json:"category"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type orderResp struct {
	OrderID       string     `json:"order_id"`
	CustomerID    string     `json:"customer_id"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	Total         string     `json:"total"`
	OrderDate     string     `json:"order_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Lines         []lineResp `json:"lines"`
}

type stockResp struct {
	Container string `json:"container"`
	Stock     int    `json:"stock"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates the engine's error taxonomy into HTTP responses. The
// engine has already rolled back by the time an error reaches here.
func writeError(w http.ResponseWriter, err error) {
	var stock *orders.InsufficientStockError
	if errors.As(err, &stock) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "insufficient stock",
			"container": string(stock.Container),
			"available": stock.Available,
			"requested": stock.Requested,
		})
		return
	}
	var trans *orders.StateTransitionError
	if errors.As(err, &trans) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "invalid status transition",
			"from":  string(trans.From),
			"to":    string(trans.To),
		})
		return
	}
	switch {
	case errors.Is(err, orders.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// actorFrom trusts identity headers set by the auth layer in front of us.
func actorFrom(r *http.Request) orders.Actor {
	return orders.Actor{
		CustomerID: r.Header.Get("X-Customer-Id"),
		Staff:      r.Header.Get("X-Staff") == "true",
	}
}

// ---- handlers ----

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.CustomerID == "" || req.MopID == "" || req.ReceivingID == "" || len(req.Lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	in := orders.CreateOrderInput{
		CustomerID:  req.CustomerID,
		MopID:       req.MopID,
		ReceivingID: req.ReceivingID,
		Address:     orders.AddressChoice{UseOnFile: req.UseOnFileAddress, Address: req.Address},
	}
	for _, l := range req.Lines {
		container, ok := orders.ParseContainer(l.Container)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown container: " + l.Container})
			return
		}
		category, ok := orders.ParseCategory(l.Category)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category: " + l.Category})
			return
		}
		in.Lines = append(in.Lines, orders.LineInput{Container: container, Category: category, Qty: l.Qty})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Service.CreateOrder(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publishAccepted(r, req, res)
	h.publishStock(r, res.OrderID, res.Adjustments)

	writeJSON(w, http.StatusCreated, createOrderResp{
		OrderID:   res.OrderID,
		Total:     res.Total.StringFixed(2),
		OrderDate: res.OrderDate.Format("2006-01-02"),
	})
}

func (h *OrdersHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req changeStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	target, ok := orders.ParseStatus(req.Status)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status: " + req.Status})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Service.ChangeStatus(ctx, orderID, target)
	if err != nil {
		writeError(w, err)
		return
	}

	h.dropSnapshot(ctx, orderID)
	h.publishStatusChanged(r, res)
	h.publishStock(r, orderID, res.Adjustments)

	writeJSON(w, http.StatusOK, statusResp{
		OrderID:       res.OrderID,
		Status:        string(res.To),
		PaymentStatus: string(res.PaymentStatus),
	})
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Service.Cancel(ctx, orderID, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.dropSnapshot(ctx, orderID)
	h.publishStatusChanged(r, res)
	h.publishStock(r, orderID, res.Adjustments)

	writeJSON(w, http.StatusOK, statusResp{
		OrderID:       res.OrderID,
		Status:        string(res.To),
		PaymentStatus: string(res.PaymentStatus),
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderSnapshot, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	snap, err := h.Service.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	body := toOrderResp(snap)
	if h.Redis != nil {
		if b, err := json.Marshal(body); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLSnapshot).Err()
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *OrdersHandler) listStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	levels, err := h.Service.ListStock(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]stockResp, 0, len(levels))
	for _, s := range levels {
		out = append(out, stockResp{Container: string(s.Container), Stock: s.Stock})
	}
	writeJSON(w, http.StatusOK, out)
}

func toOrderResp(snap orders.OrderSnapshot) orderResp {
	resp := orderResp{
		OrderID:       snap.Order.ID,
		CustomerID:    snap.Order.CustomerID,
		Status:        string(snap.Order.Status),
		PaymentStatus: string(snap.Order.PaymentStatus),
		Total:         snap.Order.Total.StringFixed(2),
		OrderDate:     snap.Order.OrderDate.Format("2006-01-02"),
		CreatedAt:     snap.Order.CreatedAt,
		UpdatedAt:     snap.Order.UpdatedAt,
	}
	for _, l := range snap.Lines {
		resp.Lines = append(resp.Lines, lineResp{
			Container: string(l.Container),
			Category:  string(l.Category),
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Subtotal:  l.Subtotal.StringFixed(2),
		})
	}
	return resp
}

func (h *OrdersHandler) dropSnapshot(ctx context.Context, orderID string) {
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderSnapshot, orderID)).Err()
	}
}

// ---- event publication ----

func (h *OrdersHandler) envelope(r *http.Request, eventType, orderID string, payload any) []byte {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Name,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	return kafkax.MustMarshal(ev)
}

func publish(p Publisher, key, value []byte, eventType string) {
	if p == nil {
		return
	}
	p.Publish(key, value,
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) publishAccepted(r *http.Request, req createOrderReq, res orders.CreateOrderResult) {
	payload := orders.OrderAcceptedPayload{
		OrderID:    res.OrderID,
		CustomerID: req.CustomerID,
		Total:      res.Total.StringFixed(2),
		OrderDate:  res.OrderDate.Format("2006-01-02"),
	}
	for _, l := range req.Lines {
		payload.Lines = append(payload.Lines, orders.LinePayload{
			Container: l.Container, Category: l.Category, Qty: l.Qty,
		})
	}
	value := h.envelope(r, orders.EventOrderAccepted, res.OrderID, payload)
	publish(h.PubAccepted, orders.PartitionKey(res.OrderID), value, orders.EventOrderAccepted)
}

func (h *OrdersHandler) publishStatusChanged(r *http.Request, res orders.StatusChangeResult) {
	payload := orders.StatusChangedPayload{
		OrderID:       res.OrderID,
		From:          string(res.From),
		To:            string(res.To),
		PaymentStatus: string(res.PaymentStatus),
	}
	value := h.envelope(r, orders.EventStatusChanged, res.OrderID, payload)
	publish(h.PubStatus, orders.PartitionKey(res.OrderID), value, orders.EventStatusChanged)
}

func (h *OrdersHandler) publishStock(r *http.Request, orderID string, adj []orders.StockAdjustment) {
	if len(adj) == 0 {
		return
	}
	payload := orders.ToStockAdjustedPayload(orderID, adj)
	value := h.envelope(r, orders.EventStockAdjusted, orderID, payload)
	publish(h.PubStock, orders.PartitionKey(orderID), value, orders.EventStockAdjusted)
}
