package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/jdcera4/pruebaBot/pkg/redis"
	"github.com/jdcera4/pruebaBot/pkg/whatsapp"
)

// HealthHandler handles health checks.
type HealthHandler struct {
	db           *sqlx.DB
	redis        *redis.Client
	gateway      *whatsapp.Client
	checkTimeout time.Duration
}

func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client, gateway *whatsapp.Client) *HealthHandler {
	return &HealthHandler{
		db:           db,
		redis:        redisClient,
		gateway:      gateway,
		checkTimeout: 2 * time.Second,
	}
}

// Health returns overall status and component statuses (DB, Redis and the
// WhatsApp gateway session).
// @Summary Health check
// @Description Returns overall status with database, Redis and gateway connectivity results
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	overallStatus := "ok"

	dbStatus := "up"
	if h.db == nil {
		dbStatus = "down"
		overallStatus = "down"
	} else if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
		overallStatus = "down"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "down"
			overallStatus = "degraded"
		} else {
			redisStatus = "up"
		}
	}

	gatewayStatus := "disabled"
	gatewayState := ""
	if h.gateway != nil {
		status, err := h.gateway.Status(ctx)
		switch {
		case err != nil:
			gatewayStatus = "down"
			overallStatus = "degraded"
		case status.Connected:
			gatewayStatus = "up"
			gatewayState = status.State
		default:
			gatewayStatus = "disconnected"
			gatewayState = status.State
			overallStatus = "degraded"
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().Format(time.RFC3339),
		"components": map[string]any{
			"database": map[string]any{
				"status": dbStatus,
			},
			"redis": map[string]any{
				"status": redisStatus,
			},
			"gateway": map[string]any{
				"status": gatewayStatus,
				"state":  gatewayState,
			},
		},
	})
}
