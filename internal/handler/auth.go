package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/config"
	"github.com/potager/plant-catalog/internal/model"
	"github.com/potager/plant-catalog/internal/repository"
	"github.com/potager/plant-catalog/internal/utils"
)

// AuthHandler bundles dependencies for the credential endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
}

func NewAuthHandler(cfg config.Config, u UserStore, s SessionStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	City                 string `json:"city"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userPart is the user shape returned by every endpoint; the password
// hash never leaves the repository layer.
type userPart struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	City      string    `json:"city"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Name: u.Name, Email: u.Email, City: u.City, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}

type authResp struct {
	User  userPart `json:"user"`
	Token string   `json:"token"`
}

// validateRegister checks every field before any mutation happens and
// collects field-level messages for the 422 response.
func validateRegister(req *registerReq) map[string]string {
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
	if msg := utils.CheckPasswordPolicy(req.Password); msg != "" {
		fields["password"] = msg
	} else if req.Password != req.PasswordConfirmation {
		fields["password_confirmation"] = "password confirmation does not match"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Register creates a user and logs them in immediately, returning the
// created account and a fresh session token.  New accounts are never
// admins; the flag is granted later by an existing admin.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validateRegister(&req); fields != nil {
		return validationFailed(c, fields)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, req.City, false, h.Cfg.BcryptCost)
	if err != nil {
		return storageError(c, err)
	}

	tok, err := h.issueSession(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, authResp{User: toUserPart(u), Token: tok})
}

// Login verifies credentials and returns a fresh session token.  Issuing
// goes through issueSession, which revokes every prior session in the same
// transaction: a second login from anywhere kills the first session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tok, err := h.issueSession(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, authResp{User: toUserPart(u), Token: tok})
}

// Logout revokes all sessions of the resolved user (protected route).
func (h *AuthHandler) Logout(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Sessions.RevokeAllForUser(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ConnectedUser returns the identity resolved from the bearer token.
func (h *AuthHandler) ConnectedUser(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, toUserPart(*u))
}

// IsAdmin reports whether the resolved user holds the admin flag.
func (h *AuthHandler) IsAdmin(c echo.Context) error {
	u := currentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"is_admin": u.IsAdmin})
}

// issueSession mints a token and stores its hash, replacing any live
// session of the user.
func (h *AuthHandler) issueSession(ctx context.Context, userID uint64) (string, error) {
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, userID, h.Cfg.SessionTTLHours)
	if err != nil {
		return "", err
	}
	if err := h.Sessions.Replace(ctx, userID, utils.HashToken(tok.Token), tok.Exp); err != nil {
		return "", err
	}
	return tok.Token, nil
}
