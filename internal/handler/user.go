package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/config"
	"github.com/potager/plant-catalog/internal/utils"
)

// UserHandler covers the account management endpoints: listing and
// reading users, profile updates, deletion and the admin toggle.
type UserHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
}

func NewUserHandler(cfg config.Config, u UserStore, s SessionStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Sessions: s}
}

type updateUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	City     string `json:"city"`
	Password string `json:"password"` // optional; empty keeps the current password
}

// List returns every account (any authenticated user may read users,
// matching the original API surface).
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return storageError(c, err)
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get returns a single user by id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// Update rewrites a user's profile fields.  A non-admin may only update
// their own account; admins may update anyone.  The admin flag is not
// touched here, that is ToggleAdmin's job.
func (h *UserHandler) Update(c echo.Context) error {
	actor := currentUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if actor.ID != id && !actor.IsAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	fields := map[string]string{}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || len(req.Name) > 255 {
		fields["name"] = "name is required (max 255 characters)"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "a valid email is required"
	}
	newHash := ""
	if req.Password != "" {
		if msg := utils.CheckPasswordPolicy(req.Password); msg != "" {
			fields["password"] = msg
		}
	}
	if len(fields) > 0 {
		return validationFailed(c, fields)
	}
	if req.Password != "" {
		var err error
		newHash, err = utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	u, err := h.Users.Update(ctx, id, req.Name, req.Email, req.City, newHash)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// Delete removes an account.  A non-admin may only delete themselves;
// admins may delete anyone.  The repository cascades sessions, favorites
// and events, so a deleted user's token stops resolving immediately.
func (h *UserHandler) Delete(c echo.Context) error {
	actor := currentUser(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if actor.ID != id && !actor.IsAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return storageError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleAdmin flips the is_admin flag of the target user.  The route is
// admin-gated by middleware.  Self-toggle is allowed: an admin revoking
// their own flag is deliberate and recoverable by another admin.
func (h *UserHandler) ToggleAdmin(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storageError(c, err)
	}
	u, err = h.Users.SetAdmin(ctx, id, !u.IsAdmin)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}
