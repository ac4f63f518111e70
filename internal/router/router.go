// Package router defines how HTTP routes are registered for the API.
// Route registration mirrors the authorization model directly: public
// routes carry no middleware, user routes go through bearer resolution,
// and catalog mutation plus the admin toggle additionally require the
// admin flag.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/handler"
)

// RegisterHealth exposes the readiness probe.  It lives outside the
// public/user/admin groups because it must answer even when Redis or the
// broker are down.
func RegisterHealth(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}
