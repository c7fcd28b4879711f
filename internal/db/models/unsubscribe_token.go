package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db"
)

var _ db.Model = (*UnsubscribeToken)(nil)

// UnsubscribeToken binds a single-use, expiring token to a subscription. The external edge
// consumes it and treats success as equivalent to a participant_removed signal.
type UnsubscribeToken struct {
	Token          string     `db:"token"`
	SubscriptionID uuid.UUID  `db:"subscription_id"`
	CreatedAt      time.Time  `db:"created_at"`
	ExpiresAt      time.Time  `db:"expires_at"`
	UsedAt         *time.Time `db:"used_at"`
}

func (UnsubscribeToken) TableName() string  { return "unsubscribe_token" }
func (UnsubscribeToken) PrimaryKey() string { return "token" }
func (UnsubscribeToken) OnConflict() string { return "" }

// TokenLifetime is the duration after creation a token remains valid (§3).
const TokenLifetime = 60 * 24 * time.Hour

// Valid reports whether the token can still be consumed: unused and unexpired as of now.
func (t UnsubscribeToken) Valid(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
