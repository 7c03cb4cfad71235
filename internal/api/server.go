package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storesync/internal/api/handlers"
	"storesync/internal/api/middleware"
	"storesync/internal/config"
	"storesync/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the route handlers mounted by the server.
type Handlers struct {
	Health   *handlers.HealthHandler
	Products *handlers.ProductHandler
	IronPay  *handlers.IronPayHandler
	Checkout *handlers.CheckoutHandler
	Orders   *handlers.OrderHandler
	Webhooks *handlers.WebhookHandler
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, h Handlers) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: NewRouter(cfg, logger, h),
	}
}

func NewRouter(cfg *config.Config, logger *logger.Logger, h Handlers) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.Metrics())

	router.GET("/health", h.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Products
		products := v1.Group("/products")
		{
			products.GET("", h.Products.List)
			products.GET("/:id", h.Products.Get)
			products.POST("", h.Products.Create)
			products.PUT("/:id", h.Products.Update)
			products.DELETE("/:id", h.Products.Delete)
			products.PATCH("/:id/active", h.Products.SetActive)
			products.POST("/:id/sync", h.Products.Sync)
			products.GET("/:id/sync-events", h.Products.SyncEvents)
		}

		// IronPay catalog views
		ironpay := v1.Group("/ironpay")
		{
			ironpay.GET("/products", h.IronPay.Products)
			ironpay.GET("/offers", h.IronPay.Offers)
		}

		v1.POST("/checkout", h.Checkout.Create)

		transactions := v1.Group("/transactions")
		{
			transactions.GET("/:hash", h.IronPay.GetTransaction)
			transactions.POST("/:hash/refund", h.IronPay.Refund)
		}

		// Orders
		orders := v1.Group("/orders")
		{
			orders.GET("", h.Orders.List)
			orders.GET("/:id", h.Orders.Get)
			orders.PATCH("/:id/status", h.Orders.UpdateStatus)
		}

		v1.POST("/webhooks/ironpay", h.Webhooks.IronPay)
	}

	return router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// GetRouter returns the Gin router for Vercel
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
