// Package autosub implements the auto-subscription enrollment mechanism (§4.2): when an event is
// created carrying a set of tags, every channel tagged autosub:<tag> within the event's own
// scope enrolls its owner into the event with a default reminder schedule.
package autosub

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db/models"
	"github.com/soonish-io/notifycore/internal/storage"
)

// DefaultReminderOffsets are the reminder offsets, in seconds before the event start, given to
// every subscription created by auto-subscription: one day and one hour out.
var DefaultReminderOffsets = []int64{86400, 3600}

// Enroll runs the auto-subscription algorithm for a just-created event against its tags,
// returning the subscriptions it created. Enrollment is idempotent: a subscriber who already has
// a subscription to the event (however it was created) is left untouched.
func Enroll(ctx context.Context, s *storage.Scope, event models.Event, tags []string) ([]models.Full, error) {
	var created []models.Full
	enrolled := map[uuid.UUID]bool{}

	for _, tag := range tags {
		if tag == "" {
			continue
		}

		channels, err := s.AutosubChannelsForTag(ctx, tag, event.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up autosub channels for tag %q: %w", tag, err)
		}

		for _, channel := range channels {
			if channel.OwnerSubscriberID != nil {
				full, err := enrollSubscriber(ctx, s, event, *channel.OwnerSubscriberID, channel.ChannelID, enrolled)
				if err != nil {
					return nil, err
				}
				if full != nil {
					created = append(created, *full)
				}
				continue
			}

			// Organization-owned channel: every member of the organization enrolls with the
			// same channel selector (§4.2).
			members, err := s.SubscribersInOrganization(ctx, *channel.OwnerOrganizationID)
			if err != nil {
				return nil, fmt.Errorf("failed to list members of organization %s: %w", *channel.OwnerOrganizationID, err)
			}
			for _, member := range members {
				full, err := enrollSubscriber(ctx, s, event, member.SubscriberID, channel.ChannelID, enrolled)
				if err != nil {
					return nil, err
				}
				if full != nil {
					created = append(created, *full)
				}
			}
		}
	}

	return created, nil
}

// enrollSubscriber creates (if absent) a Subscription for subscriberID against the autosub
// channel channelID, tracking enrolled so the same subscriber is never processed twice across
// overlapping tags or a channel list that names them more than once. Returns nil, nil when the
// subscriber was already enrolled, by this call or a prior one.
func enrollSubscriber(ctx context.Context, s *storage.Scope, event models.Event, subscriberID, channelID uuid.UUID, enrolled map[uuid.UUID]bool) (*models.Full, error) {
	if enrolled[subscriberID] {
		return nil, nil
	}

	_, err := s.SubscriptionByEventAndSubscriber(ctx, event.EventID, subscriberID)
	if err == nil {
		enrolled[subscriberID] = true
		return nil, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing subscription for subscriber %s: %w", subscriberID, err)
	}

	full, err := s.CreateSubscription(ctx, models.Full{
		Subscription: models.Subscription{
			SubscriptionID: uuid.New(),
			EventID:        event.EventID,
			SubscriberID:   subscriberID,
			AutoSubscribed: true,
		},
		Selectors: []models.RoutingSelector{
			{SelectorID: uuid.New(), ChannelID: &channelID},
		},
		ReminderPreferences: preferences(DefaultReminderOffsets),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to auto-subscribe %s: %w", subscriberID, err)
	}

	enrolled[subscriberID] = true
	return full, nil
}

func preferences(offsets []int64) []models.ReminderPreference {
	prefs := make([]models.ReminderPreference, len(offsets))
	for i, offset := range offsets {
		prefs[i] = models.ReminderPreference{PreferenceID: uuid.New(), OffsetSeconds: offset}
	}
	return prefs
}
