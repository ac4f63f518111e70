package router

import (
	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/handler"
	"github.com/potager/plant-catalog/internal/middleware"
)

// RegisterUser registers every endpoint that requires a resolved session
// but no admin flag.  Ownership scoping happens inside the handlers by
// comparing resource rows against the resolved identity.
func RegisterUser(e *echo.Echo, secret string, sessions middleware.SessionResolver, users middleware.UserLoader,
	a *handler.AuthHandler, uh *handler.UserHandler, fav *handler.FavoriteHandler, ev *handler.EventHandler) {

	g := e.Group("", middleware.BearerAuth(secret, sessions, users))

	g.POST("/logout", a.Logout)
	g.GET("/connectedUser", a.ConnectedUser)
	g.GET("/isadmin", a.IsAdmin)

	g.GET("/users", uh.List)
	g.GET("/users/:id", uh.Get)
	g.PUT("/users/:id", uh.Update)
	g.DELETE("/users/:id", uh.Delete)

	g.GET("/favorites", fav.List)
	g.GET("/favorite/:plant_id", fav.IsFavorite)
	g.POST("/favorites", fav.Add)
	g.DELETE("/favorites", fav.Remove)

	g.GET("/events", ev.List)
	g.POST("/events", ev.Create)
	g.GET("/events/:id", ev.Show)
}
