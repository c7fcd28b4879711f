package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
)

// Registry wraps Temporal's ScheduleClient, hiding schedule-spec construction and canonical ID
// bookkeeping behind a reminder-shaped API (§4.7).
type Registry struct {
	schedules client.ScheduleClient
	taskQueue string
}

// New builds a Registry over an already-connected Temporal client.
func New(c client.Client, taskQueue string) *Registry {
	return &Registry{schedules: c.ScheduleClient(), taskQueue: taskQueue}
}

// ReminderArgs is the argument tuple the reminder task workflow (C8) is launched with.
type ReminderArgs struct {
	EventID        uuid.UUID
	SubscriptionID uuid.UUID
	OffsetSeconds  int64
}

// CreateSubscriptionSchedules creates one schedule per offset whose firing instant
// (startDate - offset) is strictly in the future; past offsets are silently skipped. Each
// schedule's ID is the canonical event-{event_id}-sub-{subscription_id}-reminder-{offset}s form
// and its action launches the reminder task workflow. "Already exists" is treated as success.
func (r *Registry) CreateSubscriptionSchedules(ctx context.Context, eventID, subscriptionID uuid.UUID, startDate time.Time, offsets []int64) error {
	now := time.Now()
	for _, offset := range offsets {
		fireAt := startDate.Add(-time.Duration(offset) * time.Second)
		if !fireAt.After(now) {
			continue
		}
		if err := r.createOne(ctx, eventID, subscriptionID, offset, fireAt); err != nil {
			return err
		}
	}
	return nil
}

// CreateEventSchedules creates every reminder schedule for every subscription currently on the
// event, given each subscription's own offsets. subscriptions maps subscription ID to its
// configured reminder offsets.
func (r *Registry) CreateEventSchedules(ctx context.Context, eventID uuid.UUID, startDate time.Time, subscriptions map[uuid.UUID][]int64) error {
	for subscriptionID, offsets := range subscriptions {
		if err := r.CreateSubscriptionSchedules(ctx, eventID, subscriptionID, startDate, offsets); err != nil {
			return fmt.Errorf("failed to create schedules for subscription %s: %w", subscriptionID, err)
		}
	}
	return nil
}

func (r *Registry) createOne(ctx context.Context, eventID, subscriptionID uuid.UUID, offsetSeconds int64, fireAt time.Time) error {
	id := ID(eventID, subscriptionID, offsetSeconds)

	_, err := r.schedules.Create(ctx, client.ScheduleOptions{
		ID: id,
		Spec: client.ScheduleSpec{
			Calendars: []client.ScheduleCalendarSpec{{
				Year:       []client.ScheduleRange{{Start: fireAt.Year(), End: fireAt.Year()}},
				Month:      []client.ScheduleRange{{Start: int(fireAt.Month()), End: int(fireAt.Month())}},
				DayOfMonth: []client.ScheduleRange{{Start: fireAt.Day(), End: fireAt.Day()}},
				Hour:       []client.ScheduleRange{{Start: fireAt.Hour(), End: fireAt.Hour()}},
				Minute:     []client.ScheduleRange{{Start: fireAt.Minute(), End: fireAt.Minute()}},
				Second:     []client.ScheduleRange{{Start: fireAt.Second(), End: fireAt.Second()}},
			}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        id,
			Workflow:  reminderTaskWorkflowName,
			Args:      []any{ReminderArgs{EventID: eventID, SubscriptionID: subscriptionID, OffsetSeconds: offsetSeconds}},
			TaskQueue: r.taskQueue,
		},
		Overlap:        client.ScheduleOverlapPolicySkip,
		PauseOnFailure: true,
	})
	if err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("failed to create reminder schedule %s: %w", id, err)
	}
	return nil
}

// DeleteSubscriptionSchedules removes every schedule matching the canonical prefix for a single
// subscription, regardless of offset. "Not found" is treated as success.
func (r *Registry) DeleteSubscriptionSchedules(ctx context.Context, eventID, subscriptionID uuid.UUID) error {
	return r.deleteByPrefix(ctx, Prefix(eventID, subscriptionID))
}

// DeleteEventSchedules removes every reminder schedule belonging to any subscription of the
// event. Used when an event is cancelled.
func (r *Registry) DeleteEventSchedules(ctx context.Context, eventID uuid.UUID) error {
	return r.deleteByPrefix(ctx, EventPrefix(eventID))
}

func (r *Registry) deleteByPrefix(ctx context.Context, prefix string) error {
	iter, err := r.schedules.List(ctx, client.ScheduleListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}

	for iter.HasNext() {
		entry, err := iter.Next()
		if err != nil {
			return fmt.Errorf("failed to iterate schedules: %w", err)
		}
		if !strings.HasPrefix(entry.ID, prefix) {
			continue
		}
		if err := r.schedules.GetHandle(ctx, entry.ID).Delete(ctx); err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete reminder schedule %s: %w", entry.ID, err)
		}
	}
	return nil
}

// reminderTaskWorkflowName is the registered name of the reminder task workflow (C8), kept here
// rather than imported from internal/workflow to avoid a schedule -> workflow -> schedule import
// cycle (internal/workflow imports this package for ReminderArgs, and internal/activities, which
// internal/workflow also imports, imports it too); internal/workflow registers its workflow
// function under this exact name.
const reminderTaskWorkflowName = "ReminderTaskWorkflow"

func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}
