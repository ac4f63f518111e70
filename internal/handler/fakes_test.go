package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/model"
	"github.com/potager/plant-catalog/internal/queue"
	"github.com/potager/plant-catalog/internal/repository"
	"github.com/potager/plant-catalog/internal/utils"
)

// In-memory store fakes backing the handler tests.  They implement the
// same sentinel-error contract as the MySQL repositories, including the
// uniqueness rules, so the handlers cannot tell the difference.

type memUsers struct {
	seq   uint64
	users map[uint64]model.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[uint64]model.User{}} }

func (m *memUsers) Create(_ context.Context, name, email, password, city string, isAdmin bool, cost int) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	m.seq++
	u := model.User{ID: m.seq, Name: name, Email: email, PasswordHash: hash, City: city, IsAdmin: isAdmin, CreatedAt: time.Now().UTC()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id uint64, name, email, city, newHash string) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, other := range m.users {
		if other.ID != id && other.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	u.Name, u.Email, u.City = name, email, city
	if newHash != "" {
		u.PasswordHash = newHash
	}
	m.users[id] = u
	return u, nil
}

func (m *memUsers) SetAdmin(_ context.Context, id uint64, isAdmin bool) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	u.IsAdmin = isAdmin
	m.users[id] = u
	return u, nil
}

func (m *memUsers) Delete(_ context.Context, id uint64) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type memSession struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type memSessions struct {
	rows map[string]*memSession // keyed by token hash
}

func newMemSessions() *memSessions { return &memSessions{rows: map[string]*memSession{}} }

func (m *memSessions) Replace(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	// The sessions table has a unique key on token_hash that covers
	// revoked rows too; mirror it so a colliding insert fails here the
	// way it would against MySQL.
	if _, exists := m.rows[tokenHash]; exists {
		return errors.New("Error 1062 (23000): Duplicate entry for key 'uq_sessions_hash'")
	}
	for _, s := range m.rows {
		if s.userID == userID {
			s.revoked = true
		}
	}
	m.rows[tokenHash] = &memSession{userID: userID, exp: exp}
	return nil
}

func (m *memSessions) Resolve(_ context.Context, tokenHash string) (uint64, error) {
	s, ok := m.rows[tokenHash]
	if !ok || s.revoked || time.Now().UTC().After(s.exp) {
		return 0, errors.New("no live session")
	}
	return s.userID, nil
}

func (m *memSessions) RevokeAllForUser(_ context.Context, userID uint64) error {
	for _, s := range m.rows {
		if s.userID == userID {
			s.revoked = true
		}
	}
	return nil
}

func (m *memSessions) liveCount(userID uint64) int {
	n := 0
	for _, s := range m.rows {
		if s.userID == userID && !s.revoked {
			n++
		}
	}
	return n
}

type memPlants struct {
	seq    uint64
	plants map[uint64]model.Plant
}

func newMemPlants() *memPlants { return &memPlants{plants: map[uint64]model.Plant{}} }

func (m *memPlants) Create(_ context.Context, p model.Plant) (model.Plant, error) {
	m.seq++
	p.ID = m.seq
	p.CreatedAt = time.Now().UTC()
	m.plants[p.ID] = p
	return p, nil
}

func (m *memPlants) Update(_ context.Context, p model.Plant) (model.Plant, error) {
	if _, ok := m.plants[p.ID]; !ok {
		return model.Plant{}, repository.ErrNotFound
	}
	m.plants[p.ID] = p
	return p, nil
}

func (m *memPlants) SetImage(_ context.Context, id uint64, url string) error {
	p, ok := m.plants[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Image = &url
	m.plants[id] = p
	return nil
}

func (m *memPlants) Delete(_ context.Context, id uint64) error {
	if _, ok := m.plants[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.plants, id)
	return nil
}

func (m *memPlants) GetByID(_ context.Context, id uint64) (model.Plant, error) {
	p, ok := m.plants[id]
	if !ok {
		return model.Plant{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memPlants) ListAll(_ context.Context) ([]model.Plant, error) {
	out := make([]model.Plant, 0, len(m.plants))
	for _, p := range m.plants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memPlants) SearchByName(ctx context.Context, pattern string) ([]model.Plant, error) {
	all, _ := m.ListAll(ctx)
	out := make([]model.Plant, 0)
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(pattern)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPlants) ListByPeriod(ctx context.Context, periodType string, month int) ([]model.Plant, error) {
	all, _ := m.ListAll(ctx)
	out := make([]model.Plant, 0)
	for _, p := range all {
		var field string
		switch periodType {
		case repository.PeriodSowing:
			field = p.SowingPeriod
		case repository.PeriodPlanting:
			field = p.PlantingPeriod
		case repository.PeriodHarvest:
			field = p.HarvestPeriod
		default:
			return nil, errors.New("unknown period type")
		}
		if repository.PeriodContainsMonth(field, month) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memFavorites struct {
	pairs map[[2]uint64]bool // [userID, plantID]
	repo  *memPlants
}

func newMemFavorites(plants *memPlants) *memFavorites {
	return &memFavorites{pairs: map[[2]uint64]bool{}, repo: plants}
}

func (m *memFavorites) Add(_ context.Context, userID, plantID uint64) error {
	k := [2]uint64{userID, plantID}
	if m.pairs[k] {
		return repository.ErrAlreadyFavorite
	}
	m.pairs[k] = true
	return nil
}

func (m *memFavorites) Remove(_ context.Context, userID, plantID uint64) error {
	k := [2]uint64{userID, plantID}
	if !m.pairs[k] {
		return repository.ErrNotFavorite
	}
	delete(m.pairs, k)
	return nil
}

func (m *memFavorites) IsFavorite(_ context.Context, userID, plantID uint64) (bool, error) {
	return m.pairs[[2]uint64{userID, plantID}], nil
}

func (m *memFavorites) ListPlants(ctx context.Context, userID uint64) ([]model.Plant, error) {
	out := make([]model.Plant, 0)
	all, _ := m.repo.ListAll(ctx)
	for _, p := range all {
		if m.pairs[[2]uint64{userID, p.ID}] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memFavorites) size(userID uint64) int {
	n := 0
	for k := range m.pairs {
		if k[0] == userID {
			n++
		}
	}
	return n
}

type memEvents struct {
	seq    uint64
	events map[uint64]model.Event
}

func newMemEvents() *memEvents { return &memEvents{events: map[uint64]model.Event{}} }

func (m *memEvents) Create(_ context.Context, e model.Event) (model.Event, error) {
	m.seq++
	e.ID = m.seq
	e.CreatedAt = time.Now().UTC()
	m.events[e.ID] = e
	return e, nil
}

func (m *memEvents) GetByID(_ context.Context, id uint64) (model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return model.Event{}, repository.ErrNotFound
	}
	return e, nil
}

func (m *memEvents) ListByUser(_ context.Context, userID uint64) ([]model.Event, error) {
	out := make([]model.Event, 0)
	for _, e := range m.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// recordingPublisher captures activity events instead of dialing a broker.
type recordingPublisher struct {
	events []queue.ActivityEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	r.events = append(r.events, ev)
	return nil
}

// newTestContext builds an Echo context around a JSON request and returns
// it with the response recorder.
func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asUser stores a resolved user in the context the way BearerAuth does.
func asUser(c echo.Context, u model.User) { c.Set(userContextKey, &u) }
