package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"storesync/internal/logger"
	"storesync/internal/models"
	"storesync/internal/productsync"
	"storesync/internal/reconciler"
	"storesync/internal/store"

	"github.com/gin-gonic/gin"
)

type ProductRepository interface {
	List(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) (*models.Product, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Product, error)
	ListSyncEvents(ctx context.Context, productID string, limit int) ([]models.SyncEvent, error)
}

type ProductHandler struct {
	products   ProductRepository
	dispatcher productsync.Dispatcher
	logger     *logger.Logger
}

func NewProductHandler(products ProductRepository, dispatcher productsync.Dispatcher, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		products:   products,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type productRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description"`
	Price       float64  `json:"price" binding:"gt=0"`
	ImageURL    string   `json:"image_url" binding:"omitempty,url"`
	Category    string   `json:"category"`
	Stock       int      `json:"stock" binding:"gte=0"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Active      *bool    `json:"active"`
}

func (r productRequest) apply(p *models.Product) {
	p.Name = r.Name
	p.Description = r.Description
	p.Price = r.Price
	p.ImageURL = r.ImageURL
	p.Category = r.Category
	p.Stock = r.Stock
	p.Sizes = r.Sizes
	p.Colors = r.Colors
	if r.Active != nil {
		p.Active = *r.Active
	}
}

func (h *ProductHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := store.ProductFilter{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}

	products, total, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *ProductHandler) Get(c *gin.Context) {
	product, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

// Create stores the product, then syncs it. A sync failure does not undo
// the local change; it is reported next to the product.
func (h *ProductHandler) Create(c *gin.Context) {
	var request productRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := &models.Product{Active: true}
	request.apply(product)

	if err := h.products.Create(c.Request.Context(), product); err != nil {
		h.logger.Error("Failed to create product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, h.syncAndRespond(c, models.SyncActionCreate, product))
}

func (h *ProductHandler) Update(c *gin.Context) {
	product, ok := h.load(c)
	if !ok {
		return
	}

	var request productRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	request.apply(product)

	if err := h.products.Update(c.Request.Context(), product); err != nil {
		h.logger.Error("Failed to update product %s: %v", product.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, h.syncAndRespond(c, models.SyncActionUpdate, product))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	product, err := h.products.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.logger.Error("Failed to delete product %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), models.SyncActionDelete, product)
	body := gin.H{"data": product}
	addSync(body, result, err)
	if err != nil {
		h.logger.Error("Failed to dispatch delete sync of %s: %v", product.ID, err)
	}
	c.JSON(http.StatusOK, body)
}

func (h *ProductHandler) SetActive(c *gin.Context) {
	var request struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.products.SetActive(c.Request.Context(), c.Param("id"), *request.Active)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.logger.Error("Failed to set product %s active: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// Sync re-runs the update reconciliation for one product.
func (h *ProductHandler) Sync(c *gin.Context) {
	product, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.syncAndRespond(c, models.SyncActionUpdate, product))
}

func (h *ProductHandler) SyncEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	events, err := h.products.ListSyncEvents(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.logger.Error("Failed to list sync events of %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

func (h *ProductHandler) load(c *gin.Context) (*models.Product, bool) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return nil, false
		}
		h.logger.Error("Failed to fetch product %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return nil, false
	}
	return product, true
}

func (h *ProductHandler) syncAndRespond(c *gin.Context, action models.SyncAction, product *models.Product) gin.H {
	ctx := c.Request.Context()

	result, err := h.dispatcher.Dispatch(ctx, action, product)
	if err != nil {
		h.logger.Error("Failed to dispatch %s sync of %s: %v", action, product.ID, err)
	}

	// Inline syncs have just written the linkage fields.
	if result != nil {
		if fresh, getErr := h.products.Get(ctx, product.ID); getErr == nil {
			product = fresh
		}
	}

	body := gin.H{"data": product}
	addSync(body, result, err)
	return body
}

func addSync(body gin.H, result *reconciler.SyncResult, err error) {
	switch {
	case err != nil:
		body["sync"] = reconciler.SyncResult{Error: err.Error()}
	case result == nil:
		body["sync_queued"] = true
	default:
		body["sync"] = result
	}
}
