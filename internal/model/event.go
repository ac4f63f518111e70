package model

import "time"

// Event records a calendar entry a user created for one of their
// plants (sow, transplant, harvest reminders and the like).  Events
// are visible and mutable only by their owning user; the owner is
// always the identity resolved from the session token, never a
// client-supplied id.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – short label shown on the calendar.
//  Description – optional longer text.
//  StartsAt    – beginning of the event.
//  EndsAt      – end of the event; always >= StartsAt.
//  PlantID     – plant the event refers to.
//  UserID      – owner of the event.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64    // events.id
	Title       string    // events.title
	Description *string   // events.description (nullable)
	StartsAt    time.Time // events.starts_at
	EndsAt      time.Time // events.ends_at
	PlantID     uint64    // events.plant_id
	UserID      uint64    // events.user_id
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}

// Favorite links a user to a plant they bookmarked.  The pair is
// the identity: the table has a composite primary key on
// (user_id, plant_id), which is what makes concurrent duplicate
// adds safe.
type Favorite struct {
	UserID    uint64    // favorites.user_id
	PlantID   uint64    // favorites.plant_id
	CreatedAt time.Time // favorites.created_at
}
