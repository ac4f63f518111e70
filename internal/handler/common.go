// Package handler exposes the HTTP handlers for the plant catalog API.
// Handlers depend on narrow store interfaces rather than concrete
// repositories: the MySQL repositories satisfy them in production and
// in-memory fakes satisfy them in tests.  Every authenticated handler
// receives the resolved user from the bearer middleware through the
// request context and passes that identity down explicitly; a client
// supplied user id is never trusted.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/model"
	"github.com/potager/plant-catalog/internal/queue"
	"github.com/potager/plant-catalog/internal/repository"
)

// userContextKey is where the bearer middleware stores the resolved user.
const userContextKey = "user"

// dbTimeout bounds every storage call made from a handler.
const dbTimeout = 5 * time.Second

// UserStore is the credential-store surface the handlers consume.
type UserStore interface {
	Create(ctx context.Context, name, email, password, city string, isAdmin bool, cost int) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, name, email, city, newHash string) (model.User, error)
	SetAdmin(ctx context.Context, id uint64, isAdmin bool) (model.User, error)
	Delete(ctx context.Context, id uint64) error
}

// SessionStore issues and revokes session rows.
type SessionStore interface {
	Replace(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// PlantStore is the catalog surface consumed by both the public query
// handlers and the admin mutation handlers.
type PlantStore interface {
	Create(ctx context.Context, p model.Plant) (model.Plant, error)
	Update(ctx context.Context, p model.Plant) (model.Plant, error)
	SetImage(ctx context.Context, id uint64, url string) error
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (model.Plant, error)
	ListAll(ctx context.Context) ([]model.Plant, error)
	SearchByName(ctx context.Context, pattern string) ([]model.Plant, error)
	ListByPeriod(ctx context.Context, periodType string, month int) ([]model.Plant, error)
}

// FavoriteStore manages the per-user bookmark pairs.
type FavoriteStore interface {
	Add(ctx context.Context, userID, plantID uint64) error
	Remove(ctx context.Context, userID, plantID uint64) error
	IsFavorite(ctx context.Context, userID, plantID uint64) (bool, error)
	ListPlants(ctx context.Context, userID uint64) ([]model.Plant, error)
}

// EventStore persists calendar events.
type EventStore interface {
	Create(ctx context.Context, e model.Event) (model.Event, error)
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Event, error)
}

// Uploader pushes an image to the external media host and returns the
// secure URL to persist.  Implementations must be safe to call with a
// request-scoped context.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// CachePurger invalidates the public catalog response cache after an
// admin mutation so readers stop seeing the pre-mutation catalog.
type CachePurger interface {
	Purge(ctx context.Context)
}

// ActivityPublisher pushes activity messages onto the broker.  Publishing
// is fire-and-forget from the handlers: a broker outage never fails the
// request.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// currentUser returns the user resolved by the bearer middleware, or nil
// when the route was somehow reached without it.
func currentUser(c echo.Context) *model.User {
	u, _ := c.Get(userContextKey).(*model.User)
	return u
}

// validationFailed writes the 422 response carrying field-level messages.
func validationFailed(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{
		"message": "validation error",
		"errors":  fields,
	})
}

// storageError maps repository sentinels to the HTTP taxonomy and treats
// everything else as an internal fault with a generic message.
func storageError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrEmailExists):
		return validationFailed(c, map[string]string{"email": "email already taken"})
	case errors.Is(err, repository.ErrAlreadyFavorite):
		return c.JSON(http.StatusConflict, echo.Map{"error": "plant already in favorites"})
	case errors.Is(err, repository.ErrNotFavorite):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "plant not in favorites"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
