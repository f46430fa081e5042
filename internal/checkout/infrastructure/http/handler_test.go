package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/dmehra2102/storefront/internal/cart/application"
	cartdomain "github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/dmehra2102/storefront/internal/checkout/application"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	orderdomain "github.com/dmehra2102/storefront/internal/order/domain"
	ordermemory "github.com/dmehra2102/storefront/internal/order/infrastructure/memory"
	paymentapp "github.com/dmehra2102/storefront/internal/payment/application"
	"github.com/dmehra2102/storefront/internal/payment/infrastructure/gateway"
	paymentmemory "github.com/dmehra2102/storefront/internal/payment/infrastructure/memory"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/kvstore"
)

type fixture struct {
	srv    *httptest.Server
	cart   *cartapp.Service
	orders *ordermemory.Repository
}

func newFixture(t *testing.T, successRate float64) fixture {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cart := cartapp.NewService(ctx, log, kvstore.NewMemory(), "test")
	cart.Add(ctx, cartdomain.LineItem{ProductID: 7, ProductName: "Denim Jacket", Price: decimal.NewFromInt(20), Quantity: 2})

	payments := paymentapp.NewService(log, gateway.NewSimulated(successRate), paymentmemory.NewLedger())
	repo := ordermemory.NewRepository()
	orders := orderapp.NewService(log, repo, payments)
	sessions, err := application.NewSessions(log, 8, cart, orders, decimal.RequireFromString("9.99"))
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(log, sessions, idempotency.NewMemory(time.Hour)).Routes())
	t.Cleanup(srv.Close)
	return fixture{srv: srv, cart: cart, orders: repo}
}

func call(t *testing.T, method, url, body string, header map[string]string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

const shippingBody = `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","phone":"","address":"1 Analytical Way","city":"London","state":"LDN","zipCode":"N1","country":""}`

const paymentBody = `{"cardNumber":"4242424242424242","expiryDate":"12/30","cvv":"123","cardName":"Ada Lovelace"}`

func TestCheckoutFlow(t *testing.T) {
	f := newFixture(t, 1)

	var started struct {
		Data stateView `json:"data"`
	}
	resp := call(t, http.MethodPost, f.srv.URL+"/", "", nil, &started)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	base := f.srv.URL + "/" + started.Data.ID

	var st struct {
		Data  stateView `json:"data"`
		Error string    `json:"error"`
	}
	resp = call(t, http.MethodPut, base+"/shipping", `{"firstName":"Ada"}`, nil, &st)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	call(t, http.MethodPut, base+"/shipping", shippingBody, nil, &st)
	assert.Equal(t, "payment", st.Data.StepName)
	assert.Equal(t, "United States", st.Data.Shipping.Country)

	call(t, http.MethodPut, base+"/payment", paymentBody, nil, &st)
	assert.Equal(t, "review", st.Data.StepName)
	assert.Equal(t, "4242", st.Data.Payment.Last4)

	var rv struct {
		Data application.Review `json:"data"`
	}
	call(t, http.MethodGet, base+"/review", "", nil, &rv)
	assert.Equal(t, "49.99", rv.Data.Total.String())

	var placed struct {
		Data orderdomain.Order `json:"data"`
	}
	headers := map[string]string{idempotency.HeaderKey: "place-1"}
	resp = call(t, http.MethodPost, base+"/place", "", headers, &placed)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, orderdomain.StatusConfirmed, placed.Data.Status)
	assert.Equal(t, "4242", placed.Data.Payment.CardLast4)
	assert.Empty(t, f.cart.Get(context.Background()))

	var replay struct {
		Data orderdomain.Order `json:"data"`
	}
	resp = call(t, http.MethodPost, base+"/place", "", headers, &replay)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, placed.Data.Number, replay.Data.Number)

	all, err := f.orders.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeclinedPaymentStaysOnReview(t *testing.T) {
	f := newFixture(t, 0)

	var started struct {
		Data stateView `json:"data"`
	}
	call(t, http.MethodPost, f.srv.URL+"/", "", nil, &started)
	base := f.srv.URL + "/" + started.Data.ID
	call(t, http.MethodPut, base+"/shipping", shippingBody, nil, nil)
	call(t, http.MethodPut, base+"/payment", paymentBody, nil, nil)

	var failed struct {
		Error string `json:"error"`
	}
	resp := call(t, http.MethodPost, base+"/place", "", nil, &failed)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "Payment failed. Please try again.", failed.Error)

	var st struct {
		Data stateView `json:"data"`
	}
	call(t, http.MethodGet, base, "", nil, &st)
	assert.Equal(t, "review", st.Data.StepName)
	assert.Len(t, f.cart.Get(context.Background()), 1)
}

func TestStartWithEmptyCart(t *testing.T) {
	f := newFixture(t, 1)
	f.cart.Clear(context.Background())

	resp := call(t, http.MethodPost, f.srv.URL+"/", "", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = call(t, http.MethodGet, f.srv.URL+"/missing", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
