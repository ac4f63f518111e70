package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/model"
	"github.com/potager/plant-catalog/internal/queue"
	"github.com/potager/plant-catalog/internal/repository"
)

// EventHandler manages the per-user gardening calendar.  Listing only ever
// returns the resolved user's events; even an admin cannot read another
// user's calendar through these routes.
type EventHandler struct {
	Events   EventStore
	Plants   PlantStore
	Activity ActivityPublisher // may be nil
}

func NewEventHandler(e EventStore, p PlantStore, a ActivityPublisher) *EventHandler {
	if e == nil || p == nil {
		panic("nil store passed to NewEventHandler")
	}
	return &EventHandler{Events: e, Plants: p, Activity: a}
}

type eventReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	PlantID     uint64  `json:"plant_id"`
}

type eventPart struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	PlantID     uint64    `json:"plant_id"`
	UserID      uint64    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEventPart(e model.Event) eventPart {
	return eventPart{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Start:       e.StartsAt,
		End:         e.EndsAt,
		PlantID:     e.PlantID,
		UserID:      e.UserID,
		CreatedAt:   e.CreatedAt,
	}
}

// parseEventTime accepts RFC 3339 and the calendar widget's shorter
// "2006-01-02T15:04" form.
func parseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", s)
}

// Create validates and stores a calendar event owned by the resolved
// user.  Validation runs before any mutation: a bad time range or a
// dangling plant reference persists nothing.
func (h *EventHandler) Create(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	fields := map[string]string{}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || len(req.Title) > 255 {
		fields["title"] = "title is required (max 255 characters)"
	}
	if req.PlantID == 0 {
		fields["plant_id"] = "plant_id is required"
	}
	var start, end time.Time
	var err error
	if start, err = parseEventTime(req.Start); err != nil {
		fields["start"] = "start must be a valid datetime"
	}
	if end, err = parseEventTime(req.End); err != nil {
		fields["end"] = "end must be a valid datetime"
	}
	if len(fields) == 0 && end.Before(start) {
		fields["end"] = "end must be on or after start"
	}
	if req.Description != nil && len(*req.Description) > 255 {
		fields["description"] = "description is too long (max 255 characters)"
	}
	if len(fields) > 0 {
		return validationFailed(c, fields)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Plants.GetByID(ctx, req.PlantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationFailed(c, map[string]string{"plant_id": "plant does not exist"})
		}
		return storageError(c, err)
	}

	ev, err := h.Events.Create(ctx, model.Event{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    start,
		EndsAt:      end,
		PlantID:     req.PlantID,
		UserID:      u.ID, // owner is always the resolved identity
	})
	if err != nil {
		return storageError(c, err)
	}

	if h.Activity != nil {
		_ = h.Activity.Publish(c.Request().Context(), queue.ActivityEvent{
			Action:     queue.ActionEventScheduled,
			ActorID:    u.ID,
			ActorEmail: u.Email,
			PlantID:    ev.PlantID,
			EventID:    ev.ID,
			EventTitle: ev.Title,
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusCreated, toEventPart(ev))
}

// List returns the resolved user's events ordered by id.
func (h *EventHandler) List(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	events, err := h.Events.ListByUser(ctx, u.ID)
	if err != nil {
		return storageError(c, err)
	}
	out := make([]eventPart, 0, len(events))
	for _, e := range events {
		out = append(out, toEventPart(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Show returns a single event.  A foreign owner's event is a 403 (it
// exists, the caller may not see it); an absent id is a 404.
func (h *EventHandler) Show(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return storageError(c, err)
	}
	if ev.UserID != u.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toEventPart(ev))
}
