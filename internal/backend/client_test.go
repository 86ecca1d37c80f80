package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

func TestGetProduct_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/p1", r.URL.Path)
		json.NewEncoder(w).Encode(Product{ID: "p1", Name: "Mug", Price: 9.99, Stock: 12})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	p, err := client.GetProduct(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, 12, p.Stock)
}

func TestGetProduct_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.GetProduct(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitOrder_ServerMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Card declined"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.SubmitOrder(context.Background(), &domain.Order{})

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Card declined", apiErr.Message)
}

func TestSubmitOrder_Success(t *testing.T) {
	var received domain.Order
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(OrderReceipt{OrderID: "ord-1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	receipt, err := client.SubmitOrder(context.Background(), &domain.Order{
		Items:       []domain.OrderItem{{ProductID: "p1", Quantity: 2}},
		TotalAmount: 19.98,
	})

	require.NoError(t, err)
	assert.Equal(t, "ord-1", receipt.OrderID)
	assert.Equal(t, "p1", received.Items[0].ProductID)
}

func TestListAddresses_ErrorBodyWithErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.ListAddresses(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "database unavailable", apiErr.Message)
}
