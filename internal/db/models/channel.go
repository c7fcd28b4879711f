package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db"
)

var _ db.Model = (*Channel)(nil)

// AutosubTagPrefix marks a channel tag as an auto-subscription enrollment rule rather than a
// plain routing tag.
const AutosubTagPrefix = "autosub:"

// Channel is a single named delivery endpoint owned by a subscriber or an organization. The
// delivery URL is stored encrypted at rest (DeliveryURLCipher) and must only be decrypted inside
// the storage gateway.
type Channel struct {
	ChannelID           uuid.UUID  `db:"channel_id"`
	OwnerSubscriberID   *uuid.UUID `db:"owner_subscriber_id"`
	OwnerOrganizationID *uuid.UUID `db:"owner_organization_id"`
	Name                string     `db:"name"`
	DeliveryURLCipher   []byte     `db:"delivery_url"`
	Tag                 string     `db:"tag"`
	Active              bool       `db:"active"`
	CreatedAt           time.Time  `db:"created_at"`
}

func (Channel) TableName() string  { return "channel" }
func (Channel) PrimaryKey() string { return "channel_id" }
func (Channel) OnConflict() string { return "" }

// IsAutosubTag reports whether the channel's stored tag is an auto-subscription enrollment rule,
// and if so, the unprefixed event tag it enrolls against.
func (c Channel) IsAutosubTag() (eventTag string, ok bool) {
	lower := strings.ToLower(c.Tag)
	if !strings.HasPrefix(lower, AutosubTagPrefix) {
		return "", false
	}
	return strings.TrimPrefix(lower, AutosubTagPrefix), true
}

// NormalizeTag returns the channel's tag lower-cased, matching the case-insensitive comparison
// semantics required by routing selectors and auto-subscription lookups.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
