package controllers

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/productd/pkg/ctx"
	"github.com/shashiranjanraj/productd/pkg/database"
	"github.com/shashiranjanraj/productd/pkg/logger"
)

type HealthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

// Check handles GET /health. It reports 503 while the pool cannot reach the
// database.
func (hc *HealthController) Check(c *ctx.Context) {
	if err := hc.Ping(c.Context()); err != nil {
		logger.WithCtx(c.Context()).Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	c.OK(map[string]string{"status": "ok"})
}

// Ping is also the gRPC health checker.
func (hc *HealthController) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return database.Ping(ctx, hc.db)
}
