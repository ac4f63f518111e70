package middleware // middleware provides shared request processing for handlers

import (
	"context"  // context carries deadlines into the session lookups
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"     // timeout for the resolve queries

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/potager/plant-catalog/internal/model" // resolved user stored in context
	"github.com/potager/plant-catalog/internal/utils" // token verification and hashing
)

// SessionResolver resolves a stored token hash to the owning user id.
// The session repository satisfies this; tests use an in-memory fake.
type SessionResolver interface {
	Resolve(ctx context.Context, tokenHash string) (uint64, error)
}

// UserLoader loads the user record for a resolved id.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// BearerAuth returns an Echo middleware that authenticates requests from
// the Authorization header.  The presented token must carry a valid
// signature AND resolve to a live session row; signature validity alone is
// not enough, which is what makes logout and the login-revokes-prior-
// sessions policy authoritative.  On success the full user record is
// stored in the context under the "user" key for handlers to consume.
func BearerAuth(secret string, sessions SessionResolver, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			hash, err := utils.VerifySessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			userID, err := sessions.Resolve(ctx, hash)
			if err != nil {
				// Revoked, expired and unknown hashes all land here.
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			u, err := users.GetByID(ctx, userID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("user", &u)
			return next(c)
		}
	}
}
