package handler

import (
	"net/http"

	"vendapos/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	rdb     *redis.Client
	breaker *infra.CircuitBreaker
	version string
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, breaker *infra.CircuitBreaker, version string) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, breaker: breaker, version: version}
}

// Check reports dependency health. 503 when the database is unreachable;
// Redis and SMTP degrade the report but keep the API serving.
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"
	redisStatus := "ok"

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "down"
		status = http.StatusServiceUnavailable
	}
	if err := h.rdb.Ping(c.Request.Context()).Err(); err != nil {
		redisStatus = "down"
	}

	c.JSON(status, gin.H{
		"version":      h.version,
		"database":     dbStatus,
		"redis":        redisStatus,
		"mail_breaker": h.breaker.State().String(),
	})
}
