// Package handler is the serverless entry point: Handler serves the same
// router as cmd/api from a lazily built application.
package handler

import (
	"context"
	"net/http"
	"sync"

	"storesync/internal/api"
	"storesync/internal/app"
	"storesync/internal/config"
	"storesync/internal/logger"

	"github.com/gin-gonic/gin"
)

var (
	initOnce sync.Once
	router   *gin.Engine
	initErr  error
)

func setup() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}

	log := logger.NewProduction(cfg.LogLevel)

	// Sync must finish inside the invocation.
	cfg.SyncMode = config.SyncModeInline

	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		initErr = err
		return
	}

	router = api.New(cfg, log, application.Handlers()).GetRouter()
}

// Handler is the exported function called for every request.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(setup)

	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"service unavailable"}`))
		return
	}

	router.ServeHTTP(w, r)
}
