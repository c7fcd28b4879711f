package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db"
)

var _ db.Model = (*Subscriber)(nil)

// Subscriber is a stable reference to a user external to the core; user registration, login, and
// credential management happen outside this module.
type Subscriber struct {
	SubscriberID   uuid.UUID  `db:"subscriber_id"`
	Email          string     `db:"email"`
	Verified       bool       `db:"verified"`
	OrganizationID *uuid.UUID `db:"organization_id"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (Subscriber) TableName() string  { return "subscriber" }
func (Subscriber) PrimaryKey() string { return "subscriber_id" }
func (Subscriber) OnConflict() string { return "" }
