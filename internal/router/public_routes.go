package router

import (
	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/handler"
)

// RegisterPublic registers the unauthenticated surface: registration,
// login and the read-only plant catalog.  The rate limiter guards the two
// credential endpoints; the response cache wraps only the catalog reads.
// Either middleware may be nil (Redis unavailable), in which case the
// routes are registered bare.
func RegisterPublic(e *echo.Echo, a *handler.AuthHandler, cat *handler.CatalogHandler, ratelimit, cache echo.MiddlewareFunc) {
	limited := middlewareOrNop(ratelimit)
	cached := middlewareOrNop(cache)

	e.POST("/register", a.Register, limited)
	e.POST("/login", a.Login, limited)

	e.GET("/plants", cat.List, cached)
	e.GET("/plants/:id", cat.Get, cached)
	e.GET("/plantsbyname", cat.SearchByName, cached)
	e.GET("/plantsbyperiod/:month/:type", cat.SearchByPeriod, cached)
}

func middlewareOrNop(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m != nil {
		return m
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}
