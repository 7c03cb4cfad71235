package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"storesync/internal/checkout"
	"storesync/internal/logger"
	"storesync/internal/services/ironpay"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

type CheckoutService interface {
	Checkout(ctx context.Context, in checkout.Input) (*ironpay.TransactionResponse, error)
}

type CheckoutHandler struct {
	service CheckoutService
	logger  *logger.Logger
}

func NewCheckoutHandler(service CheckoutService, logger *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger,
	}
}

// cardRequest accepts expiry fields as JSON strings or numbers.
type cardRequest struct {
	Number     string      `json:"number"`
	HolderName string      `json:"holder_name"`
	ExpMonth   interface{} `json:"exp_month"`
	ExpYear    interface{} `json:"exp_year"`
	CVV        interface{} `json:"cvv"`
}

type checkoutRequest struct {
	Cart          []checkout.CartLine   `json:"cart"`
	Customer      checkout.Customer     `json:"customer"`
	PaymentMethod ironpay.PaymentMethod `json:"payment_method"`
	Card          *cardRequest          `json:"card"`
	Installments  interface{}           `json:"installments"`
	OfferHash     string                `json:"offer_hash"`
}

func (r checkoutRequest) input() checkout.Input {
	in := checkout.Input{
		Lines:         r.Cart,
		Customer:      r.Customer,
		PaymentMethod: r.PaymentMethod,
		Installments:  cast.ToInt(r.Installments),
		OfferHash:     r.OfferHash,
	}
	if r.Card != nil {
		in.Card = &checkout.Card{
			Number:     r.Card.Number,
			HolderName: r.Card.HolderName,
			ExpMonth:   monthString(r.Card.ExpMonth),
			ExpYear:    cast.ToString(r.Card.ExpYear),
			CVV:        cast.ToString(r.Card.CVV),
		}
	}
	return in
}

func (h *CheckoutHandler) Create(c *gin.Context) {
	var request checkoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	resp, err := h.service.Checkout(c.Request.Context(), request.input())
	if err != nil {
		var ve *checkout.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error":   ve.Message,
				"fields":  ve.Fields,
				"items":   ve.Items,
			})
			return
		}
		h.logger.Error("Checkout failed: %v", err)
		respondGatewayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
		"ironpay": resp.Raw,
	})
}

// monthString renders a numeric month as two digits; strings pass through
// so that "8" is still rejected.
func monthString(v interface{}) string {
	switch v.(type) {
	case float64, int, int64:
		if n, err := cast.ToIntE(v); err == nil {
			return fmt.Sprintf("%02d", n)
		}
	}
	return cast.ToString(v)
}
