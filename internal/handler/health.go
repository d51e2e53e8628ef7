package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emclab/station-booking/internal/repository"
)

// Health answers liveness probes.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// HealthHandler answers readiness probes that need the database.
type HealthHandler struct {
	Stations *repository.StationRepo
}

func NewHealthHandler(stations *repository.StationRepo) *HealthHandler {
	return &HealthHandler{Stations: stations}
}

// DB reports whether the Biz database answers a trivial query.
func (h *HealthHandler) DB(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if !h.Stations.Ping(ctx) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "database": "down"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "database": "up"})
}
