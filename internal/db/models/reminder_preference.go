package models

import (
	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db"
)

var _ db.Model = (*ReminderPreference)(nil)

// ReminderPreference is a child of Subscription: how long before the event start a personal
// reminder should fire. A subscription may have zero, one, or many.
type ReminderPreference struct {
	PreferenceID   uuid.UUID `db:"preference_id"`
	SubscriptionID uuid.UUID `db:"subscription_id"`
	OffsetSeconds  int64     `db:"offset_seconds"`
}

func (ReminderPreference) TableName() string  { return "reminder_preference" }
func (ReminderPreference) PrimaryKey() string { return "preference_id" }
func (ReminderPreference) OnConflict() string { return "" }
