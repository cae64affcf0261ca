package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parkease/internal/repository"
)

// Health is a liveness probe returning plain "ok".
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Readiness reports database connectivity and spot counts.
func Readiness(db *sql.DB, spots *repository.SpotRepo) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unhealthy", "database": "disconnected", "error": err.Error()})
		}
		st, err := spots.Stats(ctx)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unhealthy", "database": "connected", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":    "healthy",
			"database":  "connected",
			"spots":     st,
			"timestamp": time.Now().UTC(),
		})
	}
}
