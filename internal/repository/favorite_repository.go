package repository

import (
	"context"
	"database/sql"

	"github.com/potager/plant-catalog/internal/model"
)

// FavoriteRepo manages the (user, plant) bookmark pairs.  Uniqueness is
// enforced by the composite primary key, so Add and Remove are single
// statements with no check-then-act window.
type FavoriteRepo struct{ DB *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{DB: db} }

// Add inserts the pair.  A duplicate key means the plant is already a
// favorite and surfaces as ErrAlreadyFavorite.
func (r *FavoriteRepo) Add(ctx context.Context, userID, plantID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO favorites (user_id, plant_id) VALUES (?,?)", userID, plantID)
	if isDuplicateKey(err) {
		return ErrAlreadyFavorite
	}
	return err
}

// Remove deletes the pair; ErrNotFavorite when nothing was deleted.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, plantID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id=? AND plant_id=?", userID, plantID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFavorite
	}
	return nil
}

// IsFavorite reports whether the pair exists.
func (r *FavoriteRepo) IsFavorite(ctx context.Context, userID, plantID uint64) (bool, error) {
	var f model.Favorite
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, plant_id, created_at FROM favorites WHERE user_id=? AND plant_id=? LIMIT 1",
		userID, plantID).Scan(&f.UserID, &f.PlantID, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListPlants returns the plants a user has favorited, ordered by name so
// the response matches the catalog listing order.
func (r *FavoriteRepo) ListPlants(ctx context.Context, userID uint64) ([]model.Plant, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.id,p.name,p.image,p.type,p.description,p.sowing_period,p.planting_period,
		        p.harvest_period,p.soil,p.watering,p.exposure,p.maintenance,p.created_at,p.updated_at
		 FROM favorites f JOIN plants p ON p.id = f.plant_id
		 WHERE f.user_id=? ORDER BY p.name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Plant, 0)
	for rows.Next() {
		p, err := scanPlantRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
