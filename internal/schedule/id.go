// Package schedule is the Schedule Registry (C6): a facade over Temporal's ScheduleClient that
// maps each (subscription, reminder offset) pair to a single canonically-named schedule, so the
// set of live schedules for a subscription can always be recovered from naming alone without a
// side index (§4.6).
package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// idPrefixFormat and idSuffix bracket the canonical ID grammar:
// event-<event_id>-sub-<subscription_id>-reminder-<offset_seconds>s
const (
	idFormat       = "event-%s-sub-%s-reminder-%ds"
	idPrefixFormat = "event-%s-sub-%s-reminder-"
	idSuffix       = "s"
)

// ID builds the canonical schedule ID for one reminder offset of one subscription.
func ID(eventID, subscriptionID uuid.UUID, offsetSeconds int64) string {
	return fmt.Sprintf(idFormat, eventID, subscriptionID, offsetSeconds)
}

// Prefix builds the literal prefix shared by every schedule ID belonging to a subscription,
// used to enumerate or delete all of a subscription's reminder schedules at once.
func Prefix(eventID, subscriptionID uuid.UUID) string {
	return fmt.Sprintf(idPrefixFormat, eventID, subscriptionID)
}

// EventPrefix builds the literal prefix shared by every schedule ID belonging to any
// subscription of an event, used to delete all of an event's reminder schedules at once when the
// event is cancelled.
func EventPrefix(eventID uuid.UUID) string {
	return fmt.Sprintf("event-%s-", eventID)
}

// ParseOffset recovers the offset, in seconds, encoded in a canonical schedule ID built with ID
// and the same eventID/subscriptionID.
func ParseOffset(id string, eventID, subscriptionID uuid.UUID) (int64, bool) {
	prefix := Prefix(eventID, subscriptionID)
	if !strings.HasPrefix(id, prefix) || !strings.HasSuffix(id, idSuffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(id, prefix), idSuffix)
	offset, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return offset, true
}
