package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKhaltiInitiatePayment(t *testing.T) {
	var got khaltiInitiateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/epayment/initiate/", r.URL.Path)
		assert.Equal(t, "Key secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"pidx":"px-1","payment_url":"https://pay/px-1","expires_at":"2026-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	svc := NewKhaltiPaymentService("secret", srv.URL+"/", "https://app/return", "https://app")
	session, err := svc.InitiatePayment(context.Background(), PaymentRequest{
		OrderID:   "listing-1",
		OrderName: "Camera",
		Amount:    150.5,
	})

	require.NoError(t, err)
	assert.Equal(t, "px-1", session.Pidx)
	assert.Equal(t, "https://pay/px-1", session.PaymentURL)
	assert.Equal(t, int64(15050), got.Amount)
	assert.Equal(t, "listing-1", got.PurchaseOrderID)
	assert.Equal(t, "https://app/return", got.ReturnURL)
}

func TestKhaltiInitiatePaymentRejectsBadAmount(t *testing.T) {
	svc := NewKhaltiPaymentService("secret", "http://unused", "", "")
	_, err := svc.InitiatePayment(context.Background(), PaymentRequest{OrderID: "x", Amount: 0})
	assert.Error(t, err)
}

func TestKhaltiLookupPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/epayment/lookup/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "px-1", body["pidx"])

		w.Write([]byte(`{"pidx":"px-1","total_amount":30000,"status":"Completed","transaction_id":"tx-9"}`))
	}))
	defer srv.Close()

	svc := NewKhaltiPaymentService("secret", srv.URL, "", "")
	lookup, err := svc.LookupPayment(context.Background(), "px-1")

	require.NoError(t, err)
	assert.Equal(t, GatewayStatusCompleted, lookup.Status)
	assert.Equal(t, 300.0, lookup.TotalAmount)
	assert.Equal(t, "tx-9", lookup.TransactionID)
}

func TestKhaltiErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Invalid token."}`))
	}))
	defer srv.Close()

	svc := NewKhaltiPaymentService("bad", srv.URL, "", "")
	_, err := svc.LookupPayment(context.Background(), "px-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid token")
}
