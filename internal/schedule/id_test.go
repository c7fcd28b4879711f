package schedule

import (
	"testing"

	"github.com/google/uuid"
)

func TestIDRoundTrip(t *testing.T) {
	eventID := uuid.New()
	subscriptionID := uuid.New()

	id := ID(eventID, subscriptionID, 3600)
	want := "event-" + eventID.String() + "-sub-" + subscriptionID.String() + "-reminder-3600s"
	if id != want {
		t.Fatalf("ID() = %q, want %q", id, want)
	}

	offset, ok := ParseOffset(id, eventID, subscriptionID)
	if !ok {
		t.Fatalf("ParseOffset() did not recognize its own ID %q", id)
	}
	if offset != 3600 {
		t.Fatalf("ParseOffset() = %d, want 3600", offset)
	}
}

func TestParseOffsetRejectsForeignIDs(t *testing.T) {
	eventID := uuid.New()
	subscriptionID := uuid.New()
	otherSubscriptionID := uuid.New()

	id := ID(eventID, otherSubscriptionID, 60)
	if _, ok := ParseOffset(id, eventID, subscriptionID); ok {
		t.Fatalf("ParseOffset() accepted an ID belonging to a different subscription")
	}
}

func TestPrefixMatchesEveryOffsetOfASubscription(t *testing.T) {
	eventID := uuid.New()
	subscriptionID := uuid.New()

	prefix := Prefix(eventID, subscriptionID)
	for _, offset := range []int64{0, 60, 86400} {
		id := ID(eventID, subscriptionID, offset)
		if len(id) < len(prefix) || id[:len(prefix)] != prefix {
			t.Fatalf("ID(%d) = %q does not start with Prefix() = %q", offset, id, prefix)
		}
	}
}

func TestEventPrefixMatchesEverySubscription(t *testing.T) {
	eventID := uuid.New()
	subscriptionA := uuid.New()
	subscriptionB := uuid.New()

	eventPrefix := EventPrefix(eventID)
	idA := ID(eventID, subscriptionA, 60)
	idB := ID(eventID, subscriptionB, 3600)

	if len(idA) < len(eventPrefix) || idA[:len(eventPrefix)] != eventPrefix {
		t.Fatalf("ID for subscription A %q does not start with EventPrefix() = %q", idA, eventPrefix)
	}
	if len(idB) < len(eventPrefix) || idB[:len(eventPrefix)] != eventPrefix {
		t.Fatalf("ID for subscription B %q does not start with EventPrefix() = %q", idB, eventPrefix)
	}
}
