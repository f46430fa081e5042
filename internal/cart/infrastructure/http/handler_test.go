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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/cart/application"
	"github.com/dmehra2102/storefront/pkg/kvstore"
)

type envelope struct {
	Success bool     `json:"success"`
	Data    cartView `json:"data"`
	Error   string   `json:"error"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewService(context.Background(), log, kvstore.NewMemory(), "test")
	srv := httptest.NewServer(NewHandler(log, svc).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestCartFlowOverHTTP(t *testing.T) {
	srv := newServer(t)

	status, env := do(t, http.MethodPost, srv.URL+"/items", `{"productId":7,"productName":"Denim Jacket","price":"20","quantity":2}`)
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)

	status, env = do(t, http.MethodPost, srv.URL+"/items", `{"productId":7,"productName":"Denim Jacket","price":20,"quantity":1,"selectedSize":"","selectedColor":""}`)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, 3, env.Data.Items[0].Quantity)
	assert.Equal(t, "60", env.Data.Total.String())
	assert.Equal(t, 3, env.Data.ItemCount)

	id := env.Data.Items[0].ID
	_, env = do(t, http.MethodPatch, srv.URL+"/items/"+id, `{"quantity":0}`)
	assert.Empty(t, env.Data.Items)
	assert.Equal(t, 0, env.Data.ItemCount)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	srv := newServer(t)
	status, env := do(t, http.MethodPost, srv.URL+"/items", `{"productId":7,"price":"20","quantity":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "quantity")
}

func TestAddRejectsSubCentPrice(t *testing.T) {
	srv := newServer(t)
	status, env := do(t, http.MethodPost, srv.URL+"/items", `{"productId":7,"price":"19.999","quantity":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error, "price")

	status, env = do(t, http.MethodPost, srv.URL+"/items", `{"productId":7,"price":"19.90","quantity":1}`)
	assert.Equal(t, http.StatusCreated, status)
	require.Len(t, env.Data.Items, 1)
}
