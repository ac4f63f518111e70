package router

import (
	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/handler"
	"github.com/potager/plant-catalog/internal/middleware"
)

// RegisterAdmin registers the admin-gated surface: catalog mutation and
// the admin toggle.  Both middlewares run in order, so an unauthenticated
// request gets a 401 from BearerAuth and an authenticated non-admin gets
// a 403 from RequireAdmin before any handler executes.
func RegisterAdmin(e *echo.Echo, secret string, sessions middleware.SessionResolver, users middleware.UserLoader,
	uh *handler.UserHandler, pa *handler.PlantAdminHandler) {

	g := e.Group("",
		middleware.BearerAuth(secret, sessions, users),
		middleware.RequireAdmin(),
	)

	g.POST("/plants", pa.Create)
	g.PUT("/plants/:id", pa.Update)
	g.DELETE("/plants/:id", pa.Delete)

	g.PUT("/users/:id/toggle-admin", uh.ToggleAdmin)
}
