package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/repository"
)

// FavoriteHandler manages a user's plant bookmarks.  Every operation is
// scoped to the identity resolved from the bearer token; a request can
// never touch another user's favorites because the user id comes from the
// context, not from the payload.
type FavoriteHandler struct {
	Favorites FavoriteStore
	Plants    PlantStore
}

func NewFavoriteHandler(f FavoriteStore, p PlantStore) *FavoriteHandler {
	if f == nil || p == nil {
		panic("nil store passed to NewFavoriteHandler")
	}
	return &FavoriteHandler{Favorites: f, Plants: p}
}

type favoriteReq struct {
	PlantID uint64 `json:"plant_id"`
}

// Add bookmarks a plant for the resolved user.  Duplicate pairs are a
// 409; the uniqueness check is the storage constraint itself, so two
// concurrent identical adds cannot both succeed.
func (h *FavoriteHandler) Add(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req favoriteReq
	if err := c.Bind(&req); err != nil || req.PlantID == 0 {
		return validationFailed(c, map[string]string{"plant_id": "plant_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	// The plant must exist before the pair is created.
	if _, err := h.Plants.GetByID(ctx, req.PlantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationFailed(c, map[string]string{"plant_id": "plant does not exist"})
		}
		return storageError(c, err)
	}
	if err := h.Favorites.Add(ctx, u.ID, req.PlantID); err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "plant added to favorites"})
}

// Remove deletes the bookmark; absent pairs are a 404 and nothing is
// mutated.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req favoriteReq
	if err := c.Bind(&req); err != nil || req.PlantID == 0 {
		return validationFailed(c, map[string]string{"plant_id": "plant_id is required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Favorites.Remove(ctx, u.ID, req.PlantID); err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "plant removed from favorites"})
}

// IsFavorite reports whether the plant is bookmarked by the resolved user.
func (h *FavoriteHandler) IsFavorite(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	plantID, err := strconv.ParseUint(c.Param("plant_id"), 10, 64)
	if err != nil || plantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	fav, err := h.Favorites.IsFavorite(ctx, u.ID, plantID)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"is_favorite": fav})
}

// List returns the plants the resolved user has bookmarked.
func (h *FavoriteHandler) List(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	plants, err := h.Favorites.ListPlants(ctx, u.ID)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toPlantParts(plants)})
}
