package ironpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storesync/internal/logger"
	"storesync/internal/metrics"

	"github.com/tidwall/gjson"
)

// Operation names, used in errors and metrics.
const (
	OpListProducts      = "list_products"
	OpCreateProduct     = "create_product"
	OpUpdateProduct     = "update_product"
	OpCreateOffer       = "create_offer"
	OpCreateTransaction = "create_transaction"
	OpGetTransaction    = "get_transaction"
	OpRefundTransaction = "refund_transaction"
)

// Client talks to the IronPay public API. None of its mutations are
// idempotent: a retried create makes a second remote record.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(baseURL, apiToken string, logger *logger.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// ListProducts fetches the gateway catalog. An empty catalog is not an error.
func (c *Client) ListProducts(ctx context.Context) ([]RemoteProduct, error) {
	body, err := c.do(ctx, OpListProducts, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return []RemoteProduct{}, nil
	}

	products := make([]RemoteProduct, 0, len(data.Array()))
	data.ForEach(func(_, p gjson.Result) bool {
		products = append(products, parseRemoteProduct(p))
		return true
	})

	return products, nil
}

// CreateProduct creates a gateway product and returns its hash.
func (c *Client) CreateProduct(ctx context.Context, payload ProductPayload) (string, error) {
	c.logger.Debug("Creating IronPay product %q (%s)", payload.Title, payload.SalePage)

	body, err := c.do(ctx, OpCreateProduct, http.MethodPost, "/products", payload)
	if err != nil {
		return "", err
	}

	hash := gjson.GetBytes(body, "data.hash").String()
	if hash == "" {
		return "", &ProtocolError{Op: OpCreateProduct, Reason: "response has no product hash", Body: string(body)}
	}

	return hash, nil
}

// UpdateProduct overwrites the mutable fields of an existing gateway product.
func (c *Client) UpdateProduct(ctx context.Context, productHash string, payload ProductUpdatePayload) error {
	path := fmt.Sprintf("/products/%s", url.PathEscape(productHash))
	_, err := c.do(ctx, OpUpdateProduct, http.MethodPut, path, payload)
	return err
}

// CreateOffer attaches a new offer to a gateway product and returns its hash.
func (c *Client) CreateOffer(ctx context.Context, productHash string, payload OfferPayload) (string, error) {
	path := fmt.Sprintf("/products/%s/offers", url.PathEscape(productHash))
	body, err := c.do(ctx, OpCreateOffer, http.MethodPost, path, payload)
	if err != nil {
		return "", err
	}

	hash := gjson.GetBytes(body, "data.hash").String()
	if hash == "" {
		hash = gjson.GetBytes(body, "data.offer_hash").String()
	}
	if hash == "" {
		return "", &ProtocolError{Op: OpCreateOffer, Reason: "response has no offer hash", Body: string(body)}
	}

	return hash, nil
}

// ListOffers maps each gateway product title to its first offer hash.
func (c *Client) ListOffers(ctx context.Context) (map[string]string, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	offers := make(map[string]string)
	for _, p := range products {
		if len(p.Offers) > 0 {
			offers[p.Title] = p.Offers[0].Hash
		}
	}
	return offers, nil
}

// do issues one request and returns the raw body of a successful answer.
func (c *Client) do(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	start := time.Now()
	body, err := c.roundTrip(ctx, op, method, path, payload)
	metrics.ObserveRemoteCall(op, outcomeOf(err), time.Since(start))
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	endpoint := c.baseURL + path + "?api_token=" + url.QueryEscape(c.apiToken)

	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", op, err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ironpay %s: failed to make request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ironpay %s: failed to read response: %w", op, err)
	}

	c.logger.Debug("IronPay %s response: %d %s", op, resp.StatusCode, string(body))

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !json.Valid(body) {
		if !ok {
			return nil, remoteError(op, resp.StatusCode, body)
		}
		return nil, &ProtocolError{Op: op, Reason: "response is not valid JSON", Body: string(body)}
	}

	if !ok || gjson.GetBytes(body, "success").Type == gjson.False {
		return nil, remoteError(op, resp.StatusCode, body)
	}

	return body, nil
}

func remoteError(op string, status int, body []byte) *RemoteError {
	message := gjson.GetBytes(body, "message").String()
	if message == "" {
		message = fmt.Sprintf("ironpay %s failed: %d - %s", op, status, string(body))
	}
	return &RemoteError{
		Op:         op,
		StatusCode: status,
		Message:    message,
		Body:       string(body),
	}
}

func parseRemoteProduct(p gjson.Result) RemoteProduct {
	product := RemoteProduct{
		Hash:       p.Get("hash").String(),
		Title:      p.Get("title").String(),
		SalePage:   p.Get("sale_page").String(),
		CategoryID: int(p.Get("id_category").Int()),
		Amount:     p.Get("amount").Int(),
	}
	p.Get("offers").ForEach(func(_, o gjson.Result) bool {
		product.Offers = append(product.Offers, RemoteOffer{
			Hash:   o.Get("hash").String(),
			Title:  o.Get("title").String(),
			Amount: o.Get("amount").Int(),
		})
		return true
	})
	return product
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsRemoteError(err):
		return "remote_error"
	case IsProtocolError(err):
		return "protocol_error"
	default:
		return "transport_error"
	}
}
