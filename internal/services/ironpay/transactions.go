package ironpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// CreateTransaction submits a checkout. A refusal comes back as *RemoteError
// whose StatusCode prefers the gateway's own "status" field.
func (c *Client) CreateTransaction(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error) {
	body, err := c.do(ctx, OpCreateTransaction, http.MethodPost, "/transactions", req)
	if err != nil {
		var re *RemoteError
		if errors.As(err, &re) {
			if status := gjson.Get(re.Body, "status"); status.Type == gjson.Number {
				re.StatusCode = int(status.Int())
			}
		}
		return nil, err
	}
	return parseTransaction(OpCreateTransaction, body)
}

// GetTransaction fetches the current state of a transaction.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*TransactionResponse, error) {
	path := fmt.Sprintf("/transactions/%s", url.PathEscape(hash))
	body, err := c.do(ctx, OpGetTransaction, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return parseTransaction(OpGetTransaction, body)
}

// RefundTransaction refunds amount minor units of a transaction.
func (c *Client) RefundTransaction(ctx context.Context, hash string, amount int64) (map[string]interface{}, error) {
	path := fmt.Sprintf("/transactions/%s/refund", url.PathEscape(hash))
	body, err := c.do(ctx, OpRefundTransaction, http.MethodPost, path, map[string]int64{"amount": amount})
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ProtocolError{Op: OpRefundTransaction, Reason: "response is not an object", Body: string(body)}
	}
	return raw, nil
}

func parseTransaction(op string, body []byte) (*TransactionResponse, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ProtocolError{Op: op, Reason: "response is not an object", Body: string(body)}
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		// Some endpoints answer with the transaction at the top level.
		data = gjson.ParseBytes(body)
	}

	resp := &TransactionResponse{
		Hash:      firstString(data, "hash", "transaction_hash"),
		Status:    firstString(data, "status", "payment_status"),
		PixCode:   firstString(data, "pix_code", "pix.qr_code"),
		ExpiresAt: data.Get("expires_at").String(),
		Raw:       raw,
	}
	return resp, nil
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
