package repository

import (
	"context"
	"database/sql"

	"github.com/potager/plant-catalog/internal/model"
)

const eventColumns = "id,title,description,starts_at,ends_at,plant_id,user_id,created_at,updated_at"

// EventRepo persists calendar events.  Ownership scoping lives in the
// queries themselves: every read either filters by user_id or returns the
// owner so the handler can compare it against the resolved identity.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// Create inserts an event and returns the stored record with the
// database-populated id and timestamps.
func (r *EventRepo) Create(ctx context.Context, e model.Event) (model.Event, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO events (title, description, starts_at, ends_at, plant_id, user_id)
		 VALUES (?,?,?,?,?,?)`,
		e.Title, e.Description, e.StartsAt, e.EndsAt, e.PlantID, e.UserID)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a single event regardless of owner.  The handler is
// responsible for the ownership comparison so it can distinguish 403
// (exists, foreign owner) from 404 (absent).
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	var (
		e    model.Event
		desc sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? LIMIT 1", id).
		Scan(&e.ID, &e.Title, &desc, &e.StartsAt, &e.EndsAt, &e.PlantID, &e.UserID, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	if desc.Valid {
		v := desc.String
		e.Description = &v
	}
	return e, nil
}

// ListByUser returns only the given user's events, ordered by id.
func (r *EventRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE user_id=? ORDER BY id ASC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		var (
			e    model.Event
			desc sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Title, &desc, &e.StartsAt, &e.EndsAt, &e.PlantID, &e.UserID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			v := desc.String
			e.Description = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
