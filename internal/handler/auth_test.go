package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/potager/plant-catalog/internal/config"
)

func newAuthHandler() (*AuthHandler, *memUsers, *memSessions) {
	users := newMemUsers()
	sessions := newMemSessions()
	cfg := config.Config{JWTSecret: "test-secret", SessionTTLHours: 24, BcryptCost: bcrypt.MinCost}
	return NewAuthHandler(cfg, users, sessions), users, sessions
}

const goodPassword = "Sunflower1!"

func registerBody(email string) string {
	return `{"name":"Ada","email":"` + email + `","password":"` + goodPassword +
		`","password_confirmation":"` + goodPassword + `","city":"Lyon"}`
}

func TestRegisterCreatesUserAndSession(t *testing.T) {
	h, users, sessions := newAuthHandler()

	c, rec := newTestContext(http.MethodPost, "/register", registerBody("ada@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("response carries no token")
	}
	if resp.User["email"] != "ada@example.com" {
		t.Fatalf("email = %v, want ada@example.com", resp.User["email"])
	}
	if admin, _ := resp.User["is_admin"].(bool); admin {
		t.Fatal("freshly registered user must not be admin")
	}
	if _, leaked := resp.User["password_hash"]; leaked {
		t.Fatal("password hash leaked in response")
	}

	u, err := users.GetByEmail(c.Request().Context(), "ada@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.PasswordHash == goodPassword {
		t.Fatal("password stored in clear")
	}
	if got := sessions.liveCount(u.ID); got != 1 {
		t.Fatalf("live sessions = %d, want 1", got)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	h, users, _ := newAuthHandler()

	c, rec := newTestContext(http.MethodPost, "/register", registerBody("  Ada@Example.COM "))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if _, err := users.GetByEmail(c.Request().Context(), "ada@example.com"); err != nil {
		t.Fatalf("lower-cased lookup failed: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "missing name",
			body:  `{"email":"a@b.c","password":"` + goodPassword + `","password_confirmation":"` + goodPassword + `","city":"x"}`,
			field: "name",
		},
		{
			name:  "bad email",
			body:  `{"name":"Ada","email":"not-an-email","password":"` + goodPassword + `","password_confirmation":"` + goodPassword + `","city":"x"}`,
			field: "email",
		},
		{
			name:  "weak password",
			body:  `{"name":"Ada","email":"a@b.c","password":"short","password_confirmation":"short","city":"x"}`,
			field: "password",
		},
		{
			name:  "confirmation mismatch",
			body:  `{"name":"Ada","email":"a@b.c","password":"` + goodPassword + `","password_confirmation":"Other1!pass","city":"x"}`,
			field: "password_confirmation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, users, _ := newAuthHandler()
			c, rec := newTestContext(http.MethodPost, "/register", tt.body)
			if err := h.Register(c); err != nil {
				t.Fatalf("Register returned error: %v", err)
			}
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
			}
			var resp struct {
				Errors map[string]string `json:"errors"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if _, ok := resp.Errors[tt.field]; !ok {
				t.Fatalf("errors = %v, want key %q", resp.Errors, tt.field)
			}
			if len(users.users) != 0 {
				t.Fatal("failed validation must not create a user")
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, users, _ := newAuthHandler()

	c, rec := newTestContext(http.MethodPost, "/register", registerBody("dup@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want %d", rec.Code, http.StatusCreated)
	}

	c, rec = newTestContext(http.MethodPost, "/register", registerBody("dup@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("second status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if len(users.users) != 1 {
		t.Fatalf("users = %d, want 1", len(users.users))
	}
}

func TestLogin(t *testing.T) {
	h, _, _ := newAuthHandler()

	c, _ := newTestContext(http.MethodPost, "/register", registerBody("ada@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}

	c, rec := newTestContext(http.MethodPost, "/login", `{"email":"ada@example.com","password":"`+goodPassword+`"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	c, rec = newTestContext(http.MethodPost, "/login", `{"email":"ada@example.com","password":"WrongPass1!"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login with bad password: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	c, rec = newTestContext(http.MethodPost, "/login", `{"email":"nobody@example.com","password":"`+goodPassword+`"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login with unknown email: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// A second login replaces the first session: exactly one session stays
// live no matter how many times the user authenticates.
func TestLoginRevokesPriorSessions(t *testing.T) {
	h, users, sessions := newAuthHandler()

	c, _ := newTestContext(http.MethodPost, "/register", registerBody("ada@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	u, err := users.GetByEmail(c.Request().Context(), "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}

	for i := 0; i < 3; i++ {
		c, rec := newTestContext(http.MethodPost, "/login", `{"email":"ada@example.com","password":"`+goodPassword+`"}`)
		if err := h.Login(c); err != nil {
			t.Fatalf("Login %d: %v", i, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("Login %d status = %d, want %d", i, rec.Code, http.StatusOK)
		}
		if got := sessions.liveCount(u.ID); got != 1 {
			t.Fatalf("live sessions after login %d = %d, want 1", i, got)
		}
	}
}

func TestLogoutRevokesEverything(t *testing.T) {
	h, users, sessions := newAuthHandler()

	c, _ := newTestContext(http.MethodPost, "/register", registerBody("ada@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	u, err := users.GetByEmail(c.Request().Context(), "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}

	c, rec := newTestContext(http.MethodPost, "/logout", "")
	asUser(c, u)
	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := sessions.liveCount(u.ID); got != 0 {
		t.Fatalf("live sessions after logout = %d, want 0", got)
	}
}

func TestConnectedUserAndIsAdmin(t *testing.T) {
	h, users, _ := newAuthHandler()
	admin, err := users.Create(context.Background(), "Root", "root@example.com", goodPassword, "Paris", true, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	c, rec := newTestContext(http.MethodGet, "/connectedUser", "")
	asUser(c, admin)
	if err := h.ConnectedUser(c); err != nil {
		t.Fatalf("ConnectedUser: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	c, rec = newTestContext(http.MethodGet, "/isadmin", "")
	asUser(c, admin)
	if err := h.IsAdmin(c); err != nil {
		t.Fatalf("IsAdmin: %v", err)
	}
	var resp struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsAdmin {
		t.Fatal("is_admin = false, want true")
	}

	// Routes behind the bearer middleware never run without a resolved
	// user, but the handlers still refuse a missing identity.
	c, rec = newTestContext(http.MethodGet, "/connectedUser", "")
	if err := h.ConnectedUser(c); err != nil {
		t.Fatalf("ConnectedUser without user: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
