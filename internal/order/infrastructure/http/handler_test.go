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

	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/order/infrastructure/memory"
	"github.com/dmehra2102/storefront/pkg/idempotency"
)

func newServer(t *testing.T) (*httptest.Server, *memory.Repository, domain.Order) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewRepository()
	svc := application.NewService(log, repo, nil)
	o, err := svc.CreateOrder(context.Background(), application.CreateOrderInput{
		Items: []domain.OrderItem{{ID: "l1", ProductID: 7, ProductName: "Denim Jacket", Price: decimal.NewFromInt(20), Quantity: 3}},
		Total: decimal.RequireFromString("69.99"),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(log, svc, idempotency.NewMemory(time.Hour)).Routes())
	t.Cleanup(srv.Close)
	return srv, repo, o
}

type envelope struct {
	Success bool         `json:"success"`
	Data    domain.Order `json:"data"`
	Error   string       `json:"error"`
}

func postStatus(t *testing.T, url, status, key string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(`{"status":"`+status+`"}`))
	require.NoError(t, err)
	if key != "" {
		req.Header.Set(idempotency.HeaderKey, key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestGetOrderAndTracking(t *testing.T) {
	srv, _, o := newServer(t)

	resp, err := http.Get(srv.URL + "/1")
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	resp.Body.Close()
	assert.Equal(t, o.Number, env.Data.Number)
	assert.Equal(t, 3, env.Data.Items[0].Quantity)

	resp, err = http.Get(srv.URL + "/404")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/1/tracking")
	require.NoError(t, err)
	var tr struct {
		Data domain.Tracking `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	resp.Body.Close()
	assert.Equal(t, "FedEx", tr.Data.Carrier)
}

func TestListOrdersValidatesParams(t *testing.T) {
	srv, _, _ := newServer(t)

	for _, q := range []string{"?sort=asc", "?range=2weeks", "?status=lost"} {
		resp, err := http.Get(srv.URL + "/" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, q)
	}

	resp, err := http.Get(srv.URL + "/?status=confirmed&search=denim&range=30days")
	require.NoError(t, err)
	defer resp.Body.Close()
	var env struct {
		Data []domain.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Len(t, env.Data, 1)
}

func TestUpdateStatusIsIdempotentWithKey(t *testing.T) {
	srv, repo, _ := newServer(t)

	resp, env := postStatus(t, srv.URL+"/1/status", "shipped", "abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StatusShipped, env.Data.Status)

	resp, env = postStatus(t, srv.URL+"/1/status", "shipped", "abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	assert.Len(t, env.Data.Tracking.Events, 2)

	o, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, o.Tracking.Events, 2, "replay must not append a second event")

	resp, _ = postStatus(t, srv.URL+"/1/status", "misplaced", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
