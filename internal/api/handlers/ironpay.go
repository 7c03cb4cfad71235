package handlers

import (
	"context"
	"errors"
	"net/http"

	"storesync/internal/logger"
	"storesync/internal/services/ironpay"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

type Gateway interface {
	ListProducts(ctx context.Context) ([]ironpay.RemoteProduct, error)
	ListOffers(ctx context.Context) (map[string]string, error)
	GetTransaction(ctx context.Context, hash string) (*ironpay.TransactionResponse, error)
	RefundTransaction(ctx context.Context, hash string, amount int64) (map[string]interface{}, error)
}

// IronPayHandler exposes read-only gateway views and refunds to the admin.
type IronPayHandler struct {
	gateway Gateway
	logger  *logger.Logger
}

func NewIronPayHandler(gateway Gateway, logger *logger.Logger) *IronPayHandler {
	return &IronPayHandler{
		gateway: gateway,
		logger:  logger,
	}
}

func (h *IronPayHandler) Products(c *gin.Context) {
	products, err := h.gateway.ListProducts(c.Request.Context())
	if err != nil {
		h.gatewayError(c, "list products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": products})
}

// Offers maps each gateway product title to its first offer hash.
func (h *IronPayHandler) Offers(c *gin.Context) {
	offers, err := h.gateway.ListOffers(c.Request.Context())
	if err != nil {
		h.gatewayError(c, "list offers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "offers": offers})
}

func (h *IronPayHandler) GetTransaction(c *gin.Context) {
	tx, err := h.gateway.GetTransaction(c.Request.Context(), c.Param("hash"))
	if err != nil {
		h.gatewayError(c, "get transaction", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": tx, "ironpay": tx.Raw})
}

func (h *IronPayHandler) Refund(c *gin.Context) {
	var request struct {
		Amount interface{} `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := cast.ToInt64E(request.Amount)
	if err != nil || amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number of cents"})
		return
	}

	hash := c.Param("hash")
	h.logger.Info("Refunding %d from IronPay transaction %s", amount, hash)

	raw, err := h.gateway.RefundTransaction(c.Request.Context(), hash, amount)
	if err != nil {
		h.gatewayError(c, "refund transaction", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ironpay": raw})
}

func (h *IronPayHandler) gatewayError(c *gin.Context, op string, err error) {
	h.logger.Error("IronPay %s failed: %v", op, err)
	respondGatewayError(c, err)
}

// respondGatewayError maps gateway failures: a refusal keeps the gateway's
// 4xx status and message, everything else is a bad gateway.
func respondGatewayError(c *gin.Context, err error) {
	var re *ironpay.RemoteError
	if errors.As(err, &re) {
		status := http.StatusBadGateway
		if re.StatusCode >= 400 && re.StatusCode < 500 {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"success": false, "error": re.Message, "status": re.StatusCode})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
}
