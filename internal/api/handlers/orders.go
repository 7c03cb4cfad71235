package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"storesync/internal/logger"
	"storesync/internal/models"
	"storesync/internal/store"

	"github.com/gin-gonic/gin"
)

type OrderRepository interface {
	List(ctx context.Context, f store.OrderFilter) ([]models.Order, int64, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}

type OrderHandler struct {
	orders OrderRepository
	logger *logger.Logger
}

func NewOrderHandler(orders OrderRepository, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.orders.List(c.Request.Context(), store.OrderFilter{
		Page:   page,
		Limit:  limit,
		Status: c.Query("status"),
	})
	if err != nil {
		h.logger.Error("Failed to list orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": orders,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var request struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !request.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status " + string(request.Status)})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), request.Status)
	if err != nil {
		h.orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *OrderHandler) orderError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	h.logger.Error("Order %s: %v", c.Param("id"), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process order"})
}
