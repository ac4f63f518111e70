package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/model"
)

// RequireAdmin returns a middleware function that enforces that the
// resolved user is an administrator.  It assumes BearerAuth has already
// stored the user in the context; requests without one, or from
// non-admin users, are aborted with a 403 Forbidden response.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := c.Get("user").(*model.User)
			if !ok || u == nil || !u.IsAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
