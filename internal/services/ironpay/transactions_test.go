package ironpay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1), body["installments"])
		assert.NotContains(t, body, "card")
		assert.NotContains(t, body, "postback_url")

		io.WriteString(w, `{"success":true,"data":{"hash":"tx1","payment_status":"waiting_payment","pix_code":"000201","expires_at":"2026-10-16"}}`)
	})

	resp, err := client.CreateTransaction(context.Background(), &TransactionRequest{
		Amount:        39980,
		PaymentMethod: PaymentMethodPix,
		Installments:  1,
	})
	require.NoError(t, err)
	assert.True(t, resp.Accepted())
	assert.Equal(t, "tx1", resp.Hash)
	assert.Equal(t, "waiting_payment", resp.Status)
	assert.Equal(t, "000201", resp.PixCode)
	assert.Equal(t, "2026-10-16", resp.ExpiresAt)
	assert.Equal(t, true, resp.Raw["success"])
}

func TestCreateTransactionRefused(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"message":"O campo installments é obrigatório","status":422}`)
	})

	_, err := client.CreateTransaction(context.Background(), &TransactionRequest{})
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 422, re.StatusCode)
	assert.Equal(t, "O campo installments é obrigatório", re.Message)
}

func TestGetTransactionTopLevelBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/tx1", r.URL.Path)
		io.WriteString(w, `{"transaction_hash":"tx1","status":"paid"}`)
	})

	resp, err := client.GetTransaction(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, "tx1", resp.Hash)
	assert.Equal(t, "paid", resp.Status)
}

func TestRefundTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/tx1/refund", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1500), body["amount"])

		io.WriteString(w, `{"success":true,"data":{"status":"refunded"}}`)
	})

	raw, err := client.RefundTransaction(context.Background(), "tx1", 1500)
	require.NoError(t, err)
	assert.Equal(t, true, raw["success"])
}
