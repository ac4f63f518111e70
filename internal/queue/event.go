// Package queue defines message payloads exchanged over the message broker.
package queue

// Action values carried by ActivityEvent.
const (
	ActionPlantCreated   = "plant.created"
	ActionPlantUpdated   = "plant.updated"
	ActionPlantDeleted   = "plant.deleted"
	ActionEventScheduled = "event.scheduled"
)

// ActivityEvent is published whenever the catalog changes or a user
// schedules a calendar event.  It contains enough information for
// downstream consumers to log or notify without querying the primary
// database.
type ActivityEvent struct {
	Action     string `json:"action"`
	ActorID    uint64 `json:"actor_id"`
	ActorEmail string `json:"actor_email"`
	PlantID    uint64 `json:"plant_id,omitempty"`
	PlantName  string `json:"plant_name,omitempty"`
	EventID    uint64 `json:"event_id,omitempty"`
	EventTitle string `json:"event_title,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
