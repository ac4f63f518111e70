// This file defines handlers for the public catalog API.  These routes
// allow unauthenticated users to browse and search plants; no identity is
// resolved and no ownership applies.  The period search matches month
// tokens exactly, so querying month 1 does not hit "10, 11, 12".
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/model"
	"github.com/potager/plant-catalog/internal/repository"
)

// CatalogHandler serves the read-only plant catalog.
type CatalogHandler struct {
	Plants PlantStore
}

func NewCatalogHandler(p PlantStore) *CatalogHandler {
	if p == nil {
		panic("nil plant store passed to NewCatalogHandler")
	}
	return &CatalogHandler{Plants: p}
}

// plantPart is the catalog entry shape exposed over HTTP.
type plantPart struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Image          *string   `json:"image"`
	Type           *string   `json:"type"`
	Description    string    `json:"description"`
	SowingPeriod   string    `json:"sowing_period"`
	PlantingPeriod string    `json:"planting_period"`
	HarvestPeriod  string    `json:"harvest_period"`
	Soil           string    `json:"soil"`
	Watering       string    `json:"watering"`
	Exposure       string    `json:"exposure"`
	Maintenance    string    `json:"maintenance"`
	CreatedAt      time.Time `json:"created_at"`
}

func toPlantPart(p model.Plant) plantPart {
	return plantPart{
		ID:             p.ID,
		Name:           p.Name,
		Image:          p.Image,
		Type:           p.Type,
		Description:    p.Description,
		SowingPeriod:   p.SowingPeriod,
		PlantingPeriod: p.PlantingPeriod,
		HarvestPeriod:  p.HarvestPeriod,
		Soil:           p.Soil,
		Watering:       p.Watering,
		Exposure:       p.Exposure,
		Maintenance:    p.Maintenance,
		CreatedAt:      p.CreatedAt,
	}
}

func toPlantParts(plants []model.Plant) []plantPart {
	out := make([]plantPart, 0, len(plants))
	for _, p := range plants {
		out = append(out, toPlantPart(p))
	}
	return out
}

// List returns the whole catalog ordered by name ascending.
func (h *CatalogHandler) List(c echo.Context) error {
	plants, err := h.Plants.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toPlantParts(plants)})
}

// Get returns a single plant by id.
func (h *CatalogHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	p, err := h.Plants.GetByID(c.Request().Context(), id)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, toPlantPart(p))
}

// SearchByName returns plants whose name contains the ?search= value,
// case-insensitively.  An empty pattern returns the full catalog, which
// matches listing behavior.
func (h *CatalogHandler) SearchByName(c echo.Context) error {
	pattern := strings.TrimSpace(c.QueryParam("search"))
	plants, err := h.Plants.SearchByName(c.Request().Context(), pattern)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toPlantParts(plants)})
}

// SearchByPeriod returns plants whose sowing, planting or harvest period
// contains the month.  Unknown period types and out-of-range months are
// client errors.
func (h *CatalogHandler) SearchByPeriod(c echo.Context) error {
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be between 1 and 12"})
	}
	periodType := strings.ToLower(strings.TrimSpace(c.Param("type")))
	if !repository.ValidPeriodType(periodType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid period type"})
	}
	plants, err := h.Plants.ListByPeriod(c.Request().Context(), periodType, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toPlantParts(plants)})
}
