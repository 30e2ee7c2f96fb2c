package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aquadrop/refill-orders/internal/orders"
)

type stubService struct {
	createIn  orders.CreateOrderInput
	createRes orders.CreateOrderResult
	createErr error

	statusRes orders.StatusChangeResult
	statusErr error

	cancelActor orders.Actor
	cancelRes   orders.StatusChangeResult
	cancelErr   error

	snapshot orders.OrderSnapshot
	snapErr  error

	stock    []orders.StockLevel
	stockErr error
}

func (s *stubService) CreateOrder(_ context.Context, in orders.CreateOrderInput) (orders.CreateOrderResult, error) {
	s.createIn = in
	return s.createRes, s.createErr
}

func (s *stubService) ChangeStatus(_ context.Context, _ string, _ orders.Status) (orders.StatusChangeResult, error) {
	return s.statusRes, s.statusErr
}

func (s *stubService) Cancel(_ context.Context, _ string, actor orders.Actor) (orders.StatusChangeResult, error) {
	s.cancelActor = actor
	return s.cancelRes, s.cancelErr
}

func (s *stubService) GetOrder(_ context.Context, _ string) (orders.OrderSnapshot, error) {
	return s.snapshot, s.snapErr
}

func (s *stubService) ListStock(_ context.Context) ([]orders.StockLevel, error) {
	return s.stock, s.stockErr
}

func newTestServer(svc OrderService) *httptest.Server {
	router := NewRouter(zap.NewNop())
	h := &OrdersHandler{Service: svc, Name: "test-api"}
	h.Register(router)
	return httptest.NewServer(router)
}

func TestCreateOrderOK(t *testing.T) {
	svc := &stubService{
		createRes: orders.CreateOrderResult{
			OrderID:   "ord-1",
			Total:     decimal.RequireFromString("275.00"),
			OrderDate: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		},
	}
	ts := newTestServer(svc)
	defer ts.Close()

	body := `{
		"customer_id": "c-1",
		"mop_id": "mop-1",
		"receiving_method_id": "rm-1",
		"use_onfile_address": true,
		"lines": [
			{"container": "ROUND", "category": "REFILL", "qty": 2},
			{"container": "SLIM", "category": "NEW_GALLON", "qty": 1}
		]
	}`
	resp, err := http.Post(ts.URL+"/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got createOrderResp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "ord-1", got.OrderID)
	require.Equal(t, "275.00", got.Total)
	require.Equal(t, "2024-03-05", got.OrderDate)

	require.True(t, svc.createIn.Address.UseOnFile)
	require.Len(t, svc.createIn.Lines, 2)
	require.Equal(t, orders.ContainerSlim, svc.createIn.Lines[1].Container)
	require.Equal(t, orders.CategoryNewGallon, svc.createIn.Lines[1].Category)
}

func TestCreateOrderRejectsUnknownContainer(t *testing.T) {
	ts := newTestServer(&stubService{})
	defer ts.Close()

	body := `{
		"customer_id": "c-1", "mop_id": "mop-1", "receiving_method_id": "rm-1",
		"address": "somewhere",
		"lines": [{"container": "JUG", "category": "REFILL", "qty": 1}]
	}`
	resp, err := http.Post(ts.URL+"/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderRejectsMissingFields(t *testing.T) {
	ts := newTestServer(&stubService{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/orders", "application/json",
		strings.NewReader(`{"customer_id": "c-1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	svc := &stubService{
		createErr: &orders.InsufficientStockError{
			Container: orders.ContainerWilkins, Available: 2, Requested: 3,
		},
	}
	ts := newTestServer(svc)
	defer ts.Close()

	body := `{
		"customer_id": "c-1", "mop_id": "mop-1", "receiving_method_id": "rm-1",
		"address": "somewhere",
		"lines": [{"container": "WILKINS", "category": "NEW_GALLON", "qty": 3}]
	}`
	resp, err := http.Post(ts.URL+"/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "WILKINS", got["container"])
	require.Equal(t, float64(2), got["available"])
	require.Equal(t, float64(3), got["requested"])
}

func TestChangeStatusOK(t *testing.T) {
	svc := &stubService{
		statusRes: orders.StatusChangeResult{
			OrderID:       "ord-1",
			From:          orders.StatusForApproval,
			To:            orders.StatusConfirmed,
			PaymentStatus: orders.PaymentPending,
		},
	}
	ts := newTestServer(svc)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/orders/ord-1/status",
		strings.NewReader(`{"status": "CONFIRMED"}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got statusResp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "CONFIRMED", got.Status)
	require.Equal(t, "PENDING", got.PaymentStatus)
}

func TestChangeStatusInvalidTransition(t *testing.T) {
	svc := &stubService{
		statusErr: &orders.StateTransitionError{
			From: orders.StatusCompleted, To: orders.StatusCancelled,
		},
	}
	ts := newTestServer(svc)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/orders/ord-1/status",
		strings.NewReader(`{"status": "CANCELLED"}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "COMPLETED", got["from"])
	require.Equal(t, "CANCELLED", got["to"])
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	ts := newTestServer(&stubService{})
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/orders/ord-1/status",
		strings.NewReader(`{"status": "SHIPPED"}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelOrderForwardsActor(t *testing.T) {
	svc := &stubService{
		cancelRes: orders.StatusChangeResult{
			OrderID:       "ord-1",
			From:          orders.StatusConfirmed,
			To:            orders.StatusCancelled,
			PaymentStatus: orders.PaymentCancelled,
		},
	}
	ts := newTestServer(svc)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/orders/ord-1/cancel", nil)
	req.Header.Set("X-Customer-Id", "c-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, orders.Actor{CustomerID: "c-1"}, svc.cancelActor)

	var got statusResp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "CANCELLED", got.Status)
	require.Equal(t, "CANCELLED", got.PaymentStatus)
}

func TestCancelOrderUnauthorized(t *testing.T) {
	svc := &stubService{cancelErr: orders.ErrUnauthorized}
	ts := newTestServer(svc)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/orders/ord-1/cancel", nil)
	req.Header.Set("X-Customer-Id", "c-2")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetOrderNotFound(t *testing.T) {
	svc := &stubService{snapErr: orders.ErrNotFound}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/orders/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetOrderOK(t *testing.T) {
	svc := &stubService{
		snapshot: orders.OrderSnapshot{
			Order: orders.Order{
				ID:            "ord-1",
				CustomerID:    "c-1",
				Status:        orders.StatusConfirmed,
				PaymentStatus: orders.PaymentPending,
				Total:         decimal.RequireFromString("275.00"),
				OrderDate:     time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
			},
			Lines: []orders.OrderLine{
				{Container: orders.ContainerRound, Category: orders.CategoryRefill, Qty: 2,
					UnitPrice: decimal.RequireFromString("25.00"),
					Subtotal:  decimal.RequireFromString("50.00")},
			},
		},
	}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/orders/ord-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got orderResp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "ord-1", got.OrderID)
	require.Equal(t, "CONFIRMED", got.Status)
	require.Equal(t, "275.00", got.Total)
	require.Len(t, got.Lines, 1)
	require.Equal(t, "50.00", got.Lines[0].Subtotal)
}

func TestListStock(t *testing.T) {
	svc := &stubService{
		stock: []orders.StockLevel{
			{Container: orders.ContainerRound, Stock: 12},
			{Container: orders.ContainerSlim, Stock: 7},
		},
	}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stock")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []stockResp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, []stockResp{
		{Container: "ROUND", Stock: 12},
		{Container: "SLIM", Stock: 7},
	}, got)
}
