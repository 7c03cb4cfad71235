package checkout

import (
	"context"
	"strings"

	"storesync/internal/logger"
	"storesync/internal/metrics"
	"storesync/internal/models"
	"storesync/internal/services/ironpay"
)

type TransactionCreator interface {
	CreateTransaction(ctx context.Context, req *ironpay.TransactionRequest) (*ironpay.TransactionResponse, error)
}

type OrderRecorder interface {
	Create(ctx context.Context, order *models.Order) error
}

type Service struct {
	builder *Builder
	gateway TransactionCreator
	orders  OrderRecorder
	logger  *logger.Logger
}

func NewService(builder *Builder, gateway TransactionCreator, orders OrderRecorder, logger *logger.Logger) *Service {
	return &Service{
		builder: builder,
		gateway: gateway,
		orders:  orders,
		logger:  logger,
	}
}

// Checkout builds and submits the transaction. A gateway refusal comes back
// as *ironpay.RemoteError carrying the gateway message. The order is stored
// only when the gateway answered with a hash or a status; a storage failure
// is logged and the gateway answer is still returned.
func (s *Service) Checkout(ctx context.Context, in Input) (*ironpay.TransactionResponse, error) {
	method := string(in.PaymentMethod)

	req, err := s.builder.Build(ctx, in)
	if err != nil {
		metrics.ObserveCheckout(method, outcome(err))
		return nil, err
	}

	s.logger.Info("Creating IronPay %s transaction for %d items, amount %d", method, len(req.Cart), req.Amount)

	resp, err := s.gateway.CreateTransaction(ctx, req)
	if err != nil {
		s.logger.Error("IronPay transaction failed: %v", err)
		metrics.ObserveCheckout(method, outcome(err))
		return nil, err
	}

	metrics.ObserveCheckout(method, "accepted")

	if !resp.Accepted() {
		s.logger.Warn("IronPay transaction answer has neither hash nor status, order not stored")
		return resp, nil
	}

	order := newOrder(in, resp)
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Failed to save order for transaction %s: %v", resp.Hash, err)
	} else {
		s.logger.Info("Order %s saved for transaction %s", order.ID, resp.Hash)
	}

	return resp, nil
}

func newOrder(in Input, resp *ironpay.TransactionResponse) *models.Order {
	items := make([]models.OrderItem, 0, len(in.Lines))
	for _, line := range in.Lines {
		items = append(items, models.OrderItem{
			ID:       line.ProductID,
			Name:     line.Name,
			Price:    line.UnitPrice,
			Size:     line.Size,
			Color:    line.Color,
			Quantity: line.Quantity,
		})
	}

	status := models.OrderStatusPending
	if resp.Status == models.PaymentStatusPaid {
		status = models.OrderStatusPaid
	}

	method := string(in.PaymentMethod)
	return &models.Order{
		CustomerName:    in.Customer.Name,
		CustomerEmail:   in.Customer.Email,
		CustomerPhone:   digitsOnly(in.Customer.Phone),
		CustomerAddress: address(in.Customer),
		Items:           items,
		Total:           Total(in.Lines).InexactFloat64(),
		PixCode:         optional(firstNonEmpty(resp.PixCode, resp.Hash)),
		TransactionHash: optional(resp.Hash),
		PaymentMethod:   optional(method),
		PaymentStatus:   optional(resp.Status),
		ExpiresAt:       optional(resp.ExpiresAt),
		Raw:             resp.Raw,
		Status:          status,
	}
}

func address(c Customer) string {
	var parts []string
	for _, p := range []string{c.StreetName, c.Number, c.Complement, c.Neighborhood, c.City, c.State, c.ZipCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func outcome(err error) string {
	switch {
	case IsValidationError(err):
		return "invalid"
	case ironpay.IsRemoteError(err):
		return "refused"
	default:
		return "error"
	}
}
