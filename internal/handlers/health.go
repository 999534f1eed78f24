package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WorkerStatus reports whether background workers run
type WorkerStatus interface {
	IsRunning() bool
}

// HealthHandler reports service and database health
type HealthHandler struct {
	db      *gorm.DB
	workers WorkerStatus
}

// NewHealthHandler creates a health handler; workers may be nil
func NewHealthHandler(db *gorm.DB, workers WorkerStatus) *HealthHandler {
	return &HealthHandler{db: db, workers: workers}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":   "healthy",
		"service":  "open-factcheck",
		"database": "ok",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["database"] = err.Error()
	}
	if h.workers != nil {
		body["workers_running"] = h.workers.IsRunning()
	}
	c.JSON(status, body)
}
