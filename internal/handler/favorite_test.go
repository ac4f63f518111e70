package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/potager/plant-catalog/internal/model"
)

func seedPlant(t *testing.T, plants *memPlants, name string) model.Plant {
	t.Helper()
	p, err := plants.Create(context.Background(), model.Plant{
		Name:          name,
		Description:   "a plant",
		SowingPeriod:  "3,4",
		HarvestPeriod: "7,8",
		Soil:          "riche",
		Watering:      "modéré",
		Exposure:      "soleil",
		Maintenance:   "faible",
	})
	if err != nil {
		t.Fatalf("seed plant %q: %v", name, err)
	}
	return p
}

func favoriteFixture(t *testing.T) (*FavoriteHandler, *memPlants, *memFavorites, model.User) {
	t.Helper()
	users := newMemUsers()
	u, err := users.Create(context.Background(), "Ada", "ada@example.com", goodPassword, "Lyon", false, 4)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	plants := newMemPlants()
	favs := newMemFavorites(plants)
	return NewFavoriteHandler(favs, plants), plants, favs, u
}

func TestFavoriteAdd(t *testing.T) {
	h, plants, favs, u := favoriteFixture(t)
	p := seedPlant(t, plants, "Tomate")

	c, rec := newTestContext(http.MethodPost, "/favorites", `{"plant_id":1}`)
	asUser(c, u)
	if err := h.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ok, _ := favs.IsFavorite(context.Background(), u.ID, p.ID); !ok {
		t.Fatal("pair not stored")
	}
}

// A duplicate add is a conflict and leaves the favorites set unchanged.
func TestFavoriteAddDuplicate(t *testing.T) {
	h, plants, favs, u := favoriteFixture(t)
	seedPlant(t, plants, "Tomate")

	c, _ := newTestContext(http.MethodPost, "/favorites", `{"plant_id":1}`)
	asUser(c, u)
	if err := h.Add(c); err != nil {
		t.Fatalf("first Add: %v", err)
	}

	c, rec := newTestContext(http.MethodPost, "/favorites", `{"plant_id":1}`)
	asUser(c, u)
	if err := h.Add(c); err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if got := favs.size(u.ID); got != 1 {
		t.Fatalf("favorites = %d, want 1", got)
	}
}

func TestFavoriteAddUnknownPlant(t *testing.T) {
	h, _, favs, u := favoriteFixture(t)

	c, rec := newTestContext(http.MethodPost, "/favorites", `{"plant_id":99}`)
	asUser(c, u)
	if err := h.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if got := favs.size(u.ID); got != 0 {
		t.Fatalf("favorites = %d, want 0", got)
	}
}

func TestFavoriteRemove(t *testing.T) {
	h, plants, favs, u := favoriteFixture(t)
	p := seedPlant(t, plants, "Tomate")
	if err := favs.Add(context.Background(), u.ID, p.ID); err != nil {
		t.Fatalf("seed favorite: %v", err)
	}

	c, rec := newTestContext(http.MethodDelete, "/favorites", `{"plant_id":1}`)
	asUser(c, u)
	if err := h.Remove(c); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ok, _ := favs.IsFavorite(context.Background(), u.ID, p.ID); ok {
		t.Fatal("pair still stored after remove")
	}

	// Removing again hits an absent pair.
	c, rec = newTestContext(http.MethodDelete, "/favorites", `{"plant_id":1}`)
	asUser(c, u)
	if err := h.Remove(c); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestFavoriteListIsScopedToUser(t *testing.T) {
	h, plants, favs, u := favoriteFixture(t)
	tomato := seedPlant(t, plants, "Tomate")
	basil := seedPlant(t, plants, "Basilic")

	if err := favs.Add(context.Background(), u.ID, tomato.ID); err != nil {
		t.Fatalf("seed favorite: %v", err)
	}
	// Another user's favorite must not appear in u's list.
	if err := favs.Add(context.Background(), u.ID+1, basil.ID); err != nil {
		t.Fatalf("seed foreign favorite: %v", err)
	}

	c, rec := newTestContext(http.MethodGet, "/favorites", "")
	asUser(c, u)
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	var resp struct {
		Items []plantPart `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Name != "Tomate" {
		t.Fatalf("items = %+v, want only Tomate", resp.Items)
	}
}

func TestIsFavorite(t *testing.T) {
	h, plants, favs, u := favoriteFixture(t)
	p := seedPlant(t, plants, "Tomate")
	if err := favs.Add(context.Background(), u.ID, p.ID); err != nil {
		t.Fatalf("seed favorite: %v", err)
	}

	c, rec := newTestContext(http.MethodGet, "/favorite/1", "")
	c.SetParamNames("plant_id")
	c.SetParamValues("1")
	asUser(c, u)
	if err := h.IsFavorite(c); err != nil {
		t.Fatalf("IsFavorite: %v", err)
	}
	var resp struct {
		IsFavorite bool `json:"is_favorite"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsFavorite {
		t.Fatal("is_favorite = false, want true")
	}

	c, rec = newTestContext(http.MethodGet, "/favorite/2", "")
	c.SetParamNames("plant_id")
	c.SetParamValues("2")
	asUser(c, u)
	if err := h.IsFavorite(c); err != nil {
		t.Fatalf("IsFavorite: %v", err)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.IsFavorite {
		t.Fatal("is_favorite = true, want false")
	}
}
