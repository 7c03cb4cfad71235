package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storesync/internal/api/handlers"
	"storesync/internal/config"
	"storesync/internal/database"
	"storesync/internal/logger"
	"storesync/internal/services/ironpay"
	"storesync/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New("sqlite://file:"+uuid.NewString()+"?mode=memory&cache=shared", database.Options{LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNop()
	orders := store.NewOrderStore(db.DB)
	cfg := &config.Config{CORSOrigins: []string{"https://loja.com"}}

	return NewRouter(cfg, log, Handlers{
		Health:   handlers.NewHealthHandler(db),
		Products: handlers.NewProductHandler(store.NewProductStore(db.DB), nil, log),
		IronPay:  handlers.NewIronPayHandler(ironpay.NewClient("http://127.0.0.1:1", "token", log), log),
		Checkout: handlers.NewCheckoutHandler(nil, log),
		Orders:   handlers.NewOrderHandler(orders, log),
		Webhooks: handlers.NewWebhookHandler(orders, "s3cret", log),
	})
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterWiring(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/orders/missing", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/ironpay", strings.NewReader(`{}`))).Code)
}

func TestRouterServesMetrics(t *testing.T) {
	r := newTestRouter(t)
	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `storesync_http_requests_total{method="GET",route="/health",status="2xx"}`)
}

func TestRouterAnswersPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout", nil)
	req.Header.Set("Origin", "https://loja.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://loja.com", w.Header().Get("Access-Control-Allow-Origin"))
}
