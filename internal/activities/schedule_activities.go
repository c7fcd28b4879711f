package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db/models"
	"github.com/soonish-io/notifycore/internal/schedule"
	"github.com/soonish-io/notifycore/internal/storage"
)

// ScheduleActivities bundles the schedule-registry-backed activities the orchestrator calls for
// every schedule mutation, since schedule CRUD is wall-clock-reading, network-calling work that
// must never run directly inside workflow code (§5).
type ScheduleActivities struct {
	Gateway  *storage.Gateway
	Registry *schedule.Registry
}

// NewScheduleActivities builds a ScheduleActivities bundle.
func NewScheduleActivities(gateway *storage.Gateway, registry *schedule.Registry) *ScheduleActivities {
	return &ScheduleActivities{Gateway: gateway, Registry: registry}
}

// LoadEventActivity fetches the event the orchestrator was started for. A missing event is
// reported as an error so the caller can decide to abandon the workflow (§4.8 "Validate event
// exists; if not, terminate").
func (a *ScheduleActivities) LoadEventActivity(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event *models.Event
	err := a.Gateway.Read(ctx, func(ctx context.Context, s *storage.Scope) error {
		found, err := s.EventByID(ctx, eventID)
		if err != nil {
			return err
		}
		event = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}
	return event, nil
}

// CreateEventSchedulesActivity creates every reminder schedule for every subscription currently
// on the event, given the event's start date.
func (a *ScheduleActivities) CreateEventSchedulesActivity(ctx context.Context, eventID uuid.UUID, startDate time.Time) error {
	offsets := map[uuid.UUID][]int64{}
	err := a.Gateway.Read(ctx, func(ctx context.Context, s *storage.Scope) error {
		subs, err := s.SubscribersForEvent(ctx, eventID)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			offsets[sub.SubscriptionID] = sub.Offsets()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load subscriptions for event %s: %w", eventID, err)
	}
	return a.Registry.CreateEventSchedules(ctx, eventID, startDate, offsets)
}

// CreateSubscriptionSchedulesActivity creates the reminder schedules for a single subscription,
// using its currently configured reminder preferences.
func (a *ScheduleActivities) CreateSubscriptionSchedulesActivity(ctx context.Context, eventID uuid.UUID, startDate time.Time, subscriptionID uuid.UUID) error {
	var offsets []int64
	err := a.Gateway.Read(ctx, func(ctx context.Context, s *storage.Scope) error {
		sub, err := s.SubscriptionByID(ctx, subscriptionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return err
		}
		offsets = sub.Offsets()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load subscription %s: %w", subscriptionID, err)
	}
	return a.Registry.CreateSubscriptionSchedules(ctx, eventID, subscriptionID, startDate, offsets)
}

// DeleteSubscriptionSchedulesActivity removes every reminder schedule for a single subscription.
func (a *ScheduleActivities) DeleteSubscriptionSchedulesActivity(ctx context.Context, eventID, subscriptionID uuid.UUID) error {
	return a.Registry.DeleteSubscriptionSchedules(ctx, eventID, subscriptionID)
}

// DeleteEventSchedulesActivity removes every reminder schedule belonging to the event.
func (a *ScheduleActivities) DeleteEventSchedulesActivity(ctx context.Context, eventID uuid.UUID) error {
	return a.Registry.DeleteEventSchedules(ctx, eventID)
}
