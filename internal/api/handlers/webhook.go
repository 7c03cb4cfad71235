package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storesync/internal/logger"
	"storesync/internal/models"
	"storesync/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

type PaymentUpdater interface {
	ApplyPaymentUpdate(ctx context.Context, transactionHash, paymentStatus string, raw map[string]interface{}) (*models.Order, error)
}

// WebhookHandler receives IronPay postbacks.
type WebhookHandler struct {
	orders PaymentUpdater
	secret string
	logger *logger.Logger
}

func NewWebhookHandler(orders PaymentUpdater, secret string, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		orders: orders,
		secret: secret,
		logger: logger,
	}
}

const maxWebhookBody = 1 << 20

// IronPay has sent the hash and status both at the top level and nested
// under data.
var (
	webhookHashPaths   = []string{"transaction_hash", "hash", "data.transaction_hash", "data.hash"}
	webhookStatusPaths = []string{"status", "payment_status", "data.status", "data.payment_status"}
)

func (h *WebhookHandler) IronPay(c *gin.Context) {
	if h.secret != "" {
		token := c.Query("token")
		if token == "" {
			token = c.GetHeader("X-Webhook-Token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil || !gjson.ValidBytes(body) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}

	parsed := gjson.ParseBytes(body)
	hash := firstPath(parsed, webhookHashPaths)
	if hash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing transaction hash"})
		return
	}
	status := firstPath(parsed, webhookStatusPaths)

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}

	order, err := h.orders.ApplyPaymentUpdate(c.Request.Context(), hash, status, raw)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			h.logger.Warn("IronPay postback for unknown transaction %s (status %s)", hash, status)
			c.JSON(http.StatusOK, gin.H{"success": true, "matched": false})
			return
		}
		h.logger.Error("Failed to apply IronPay postback for %s: %v", hash, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to update order"})
		return
	}

	h.logger.Info("IronPay postback: order %s payment status %s", order.ID, status)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"matched":  true,
		"order_id": order.ID,
		"status":   order.Status,
	})
}

func firstPath(r gjson.Result, paths []string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
