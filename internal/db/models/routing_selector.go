package models

import (
	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db"
)

var _ db.Model = (*RoutingSelector)(nil)

// RoutingSelector is a child of Subscription naming exactly one of {ChannelID, Tag}: "include
// this specific channel" or "include every active channel of the subscriber with this tag".
type RoutingSelector struct {
	SelectorID     uuid.UUID  `db:"selector_id"`
	SubscriptionID uuid.UUID  `db:"subscription_id"`
	ChannelID      *uuid.UUID `db:"channel_id"`
	Tag            *string    `db:"tag"`
}

func (RoutingSelector) TableName() string  { return "routing_selector" }
func (RoutingSelector) PrimaryKey() string { return "selector_id" }
func (RoutingSelector) OnConflict() string { return "" }

// IsTag reports whether this selector is a tag selector, returning the normalized tag.
func (s RoutingSelector) IsTag() (string, bool) {
	if s.Tag == nil {
		return "", false
	}
	return NormalizeTag(*s.Tag), true
}
