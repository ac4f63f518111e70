package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/model"
	"github.com/potager/plant-catalog/internal/queue"
)

// PlantAdminHandler covers the admin-gated catalog mutations.  The admin
// check itself runs in middleware before any of these handlers execute;
// the handlers only validate fields and orchestrate the media upload.
type PlantAdminHandler struct {
	Plants   PlantStore
	Media    Uploader          // may be nil when no media host is configured
	Activity ActivityPublisher // may be nil; publishing is best-effort
	Cache    CachePurger       // may be nil when the response cache is disabled
}

func NewPlantAdminHandler(p PlantStore, m Uploader, a ActivityPublisher, cache CachePurger) *PlantAdminHandler {
	if p == nil {
		panic("nil plant store passed to NewPlantAdminHandler")
	}
	return &PlantAdminHandler{Plants: p, Media: m, Activity: a, Cache: cache}
}

type plantReq struct {
	Name           string  `json:"name" form:"name"`
	Type           *string `json:"type" form:"type"`
	Description    string  `json:"description" form:"description"`
	SowingPeriod   string  `json:"sowing_period" form:"sowing_period"`
	PlantingPeriod string  `json:"planting_period" form:"planting_period"`
	HarvestPeriod  string  `json:"harvest_period" form:"harvest_period"`
	Soil           string  `json:"soil" form:"soil"`
	Watering       string  `json:"watering" form:"watering"`
	Exposure       string  `json:"exposure" form:"exposure"`
	Maintenance    string  `json:"maintenance" form:"maintenance"`
}

// validatePlant enforces the catalog invariants: required text fields,
// harvest period always present, sowing and planting periods not both
// empty, and every period token a month number between 1 and 12.
func validatePlant(req *plantReq) map[string]string {
	fields := map[string]string{}
	req.Name = strings.TrimSpace(req.Name)
	req.SowingPeriod = strings.TrimSpace(req.SowingPeriod)
	req.PlantingPeriod = strings.TrimSpace(req.PlantingPeriod)
	req.HarvestPeriod = strings.TrimSpace(req.HarvestPeriod)
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if strings.TrimSpace(req.Description) == "" {
		fields["description"] = "description is required"
	}
	if req.HarvestPeriod == "" {
		fields["harvest_period"] = "harvest period is required"
	}
	if req.SowingPeriod == "" && req.PlantingPeriod == "" {
		fields["sowing_period"] = "either sowing period or planting period must be provided"
		fields["planting_period"] = "either sowing period or planting period must be provided"
	}
	for name, val := range map[string]string{
		"sowing_period":   req.SowingPeriod,
		"planting_period": req.PlantingPeriod,
		"harvest_period":  req.HarvestPeriod,
	} {
		if val == "" {
			continue
		}
		if !validMonthTokens(val) {
			fields[name] = "must be a comma-separated list of months (1-12)"
		}
	}
	for name, val := range map[string]string{
		"soil":        req.Soil,
		"watering":    req.Watering,
		"exposure":    req.Exposure,
		"maintenance": req.Maintenance,
	} {
		if strings.TrimSpace(val) == "" {
			fields[name] = name + " is required"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func validMonthTokens(period string) bool {
	any := false
	for _, tok := range strings.Split(period, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 || n > 12 {
			return false
		}
		any = true
	}
	return any
}

// Create inserts a catalog entry.  The row is created first; if an image
// file accompanies the request it is then pushed to the media host and the
// returned URL stored on the row.  An upload failure does not roll back
// the row: the plant is returned with a warning so the admin can retry the
// image later.
func (h *PlantAdminHandler) Create(c echo.Context) error {
	var req plantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validatePlant(&req); fields != nil {
		return validationFailed(c, fields)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Plants.Create(ctx, plantFromReq(req))
	if err != nil {
		return storageError(c, err)
	}

	p, uploadWarn := h.attachImage(c, p)
	h.purgeCache(c)
	h.publish(c, queue.ActionPlantCreated, p)

	resp := echo.Map{"plant": toPlantPart(p)}
	if uploadWarn != "" {
		resp["warning"] = uploadWarn
	}
	return c.JSON(http.StatusCreated, resp)
}

// Update rewrites a catalog entry, with the same validation and image
// handling as Create.
func (h *PlantAdminHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req plantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validatePlant(&req); fields != nil {
		return validationFailed(c, fields)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	// Keep the existing image unless a new file replaces it.
	existing, err := h.Plants.GetByID(ctx, id)
	if err != nil {
		return storageError(c, err)
	}
	p := plantFromReq(req)
	p.ID = id
	p.Image = existing.Image

	p, err = h.Plants.Update(ctx, p)
	if err != nil {
		return storageError(c, err)
	}

	p, uploadWarn := h.attachImage(c, p)
	h.purgeCache(c)
	h.publish(c, queue.ActionPlantUpdated, p)

	resp := echo.Map{"plant": toPlantPart(p)}
	if uploadWarn != "" {
		resp["warning"] = uploadWarn
	}
	return c.JSON(http.StatusOK, resp)
}

// Delete removes a catalog entry and, through the repository cascade, the
// favorites and calendar events that reference it.
func (h *PlantAdminHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Plants.GetByID(ctx, id)
	if err != nil {
		return storageError(c, err)
	}
	if err := h.Plants.Delete(ctx, id); err != nil {
		return storageError(c, err)
	}
	h.purgeCache(c)
	h.publish(c, queue.ActionPlantDeleted, p)
	return c.NoContent(http.StatusNoContent)
}

func plantFromReq(req plantReq) model.Plant {
	return model.Plant{
		Name:           req.Name,
		Type:           req.Type,
		Description:    strings.TrimSpace(req.Description),
		SowingPeriod:   req.SowingPeriod,
		PlantingPeriod: req.PlantingPeriod,
		HarvestPeriod:  req.HarvestPeriod,
		Soil:           strings.TrimSpace(req.Soil),
		Watering:       strings.TrimSpace(req.Watering),
		Exposure:       strings.TrimSpace(req.Exposure),
		Maintenance:    strings.TrimSpace(req.Maintenance),
	}
}

// attachImage uploads the optional "image" multipart file and persists the
// returned URL.  It returns the (possibly updated) plant and a warning
// string when the upload was attempted but failed.
func (h *PlantAdminHandler) attachImage(c echo.Context, p model.Plant) (model.Plant, string) {
	fh, err := c.FormFile("image")
	if err != nil || fh == nil {
		return p, "" // no file attached
	}
	if h.Media == nil {
		return p, "image ignored: no media host configured"
	}
	src, err := fh.Open()
	if err != nil {
		return p, "image upload failed"
	}
	defer func() { _ = src.Close() }()

	url, err := h.Media.Upload(c.Request().Context(), fh.Filename, src)
	if err != nil {
		log.Printf("media upload failed for plant %d: %v", p.ID, err)
		return p, "image upload failed"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Plants.SetImage(ctx, p.ID, url); err != nil {
		log.Printf("store image url failed for plant %d: %v", p.ID, err)
		return p, "image upload failed"
	}
	p.Image = &url
	return p, ""
}

// purgeCache drops the cached catalog responses after a successful
// mutation so public readers see the change immediately.
func (h *PlantAdminHandler) purgeCache(c echo.Context) {
	if h.Cache == nil {
		return
	}
	h.Cache.Purge(c.Request().Context())
}

// publish emits an activity message; failures are logged by the publisher
// and never affect the response.
func (h *PlantAdminHandler) publish(c echo.Context, action string, p model.Plant) {
	if h.Activity == nil {
		return
	}
	actor := currentUser(c)
	ev := queue.ActivityEvent{
		Action:     action,
		PlantID:    p.ID,
		PlantName:  p.Name,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if actor != nil {
		ev.ActorID = actor.ID
		ev.ActorEmail = actor.Email
	}
	_ = h.Activity.Publish(c.Request().Context(), ev)
}
