package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db"
)

var _ db.Model = (*Subscription)(nil)

// Subscription links a Subscriber to an Event. Unique on (event_id, subscriber_id).
type Subscription struct {
	SubscriptionID uuid.UUID `db:"subscription_id"`
	EventID        uuid.UUID `db:"event_id"`
	SubscriberID   uuid.UUID `db:"subscriber_id"`
	AutoSubscribed bool      `db:"auto_subscribed"`
	CreatedAt      time.Time `db:"created_at"`
}

func (Subscription) TableName() string  { return "subscription" }
func (Subscription) PrimaryKey() string { return "subscription_id" }
func (Subscription) OnConflict() string { return "event_id, subscriber_id" }

// Full is a Subscription eagerly loaded with everything the Channel Resolver and Schedule
// Registry need, so that no lazy relationship access ever happens outside a work scope.
type Full struct {
	Subscription
	Subscriber          Subscriber
	Selectors           []RoutingSelector
	ReminderPreferences []ReminderPreference
}

// Offsets returns the reminder offsets, in seconds, configured for this subscription.
func (f Full) Offsets() []int64 {
	offsets := make([]int64, len(f.ReminderPreferences))
	for i, p := range f.ReminderPreferences {
		offsets[i] = p.OffsetSeconds
	}
	return offsets
}
