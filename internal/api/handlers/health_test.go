package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingerFunc func() error

func (f pingerFunc) Ping() error { return f() }

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/health", NewHealthHandler(newTestDB(t)).Check)

	w := perform(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	r = gin.New()
	r.GET("/health", NewHealthHandler(pingerFunc(func() error { return errors.New("connection refused") })).Check)

	w = perform(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "connection refused", decode(t, w)["database"])
}
