package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db"
)

var _ db.Model = (*Event)(nil)

// Event is the persisted record for an event whose lifecycle is driven by the Event Orchestrator.
type Event struct {
	EventID        uuid.UUID  `db:"event_id"`
	Name           string     `db:"name"`
	StartDate      time.Time  `db:"start_date"`
	EndDate        *time.Time `db:"end_date"`
	Description    *string    `db:"description"`
	Location       *string    `db:"location"`
	Public         bool       `db:"public"`
	OrganizerID    uuid.UUID  `db:"organizer_id"`
	OrganizationID *uuid.UUID `db:"organization_id"`
	// WorkflowID is the durable-execution ID that uniquely identifies this event's Event
	// Orchestrator instance.
	WorkflowID string    `db:"workflow_id"`
	CreatedAt  time.Time `db:"created_at"`
}

func (Event) TableName() string  { return "event" }
func (Event) PrimaryKey() string { return "event_id" }
func (Event) OnConflict() string { return "" }

// Scope reports the audience scope used by auto-subscription tag lookups: either a specific
// organization, or the open "public personal event" scope when no organization owns the event.
func (e Event) Scope() (organizationID *uuid.UUID, public bool) {
	if e.OrganizationID != nil {
		return e.OrganizationID, false
	}
	return nil, true
}
