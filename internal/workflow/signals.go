// Package workflow hosts the Event Orchestrator (C7) and Reminder Task (C8) durable executions,
// plus their signal payloads and worker registration. Workflow code itself never touches the
// database or the network directly — all of that is pushed into internal/activities, consistent
// with the runtime's requirement that durable executions stay deterministic (§5).
package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/activities"
)

// Signal names, used both to register handlers inside EventOrchestratorWorkflow and by callers
// signaling a running orchestrator by event workflow ID.
const (
	SignalParticipantAdded   = "participant_added"
	SignalParticipantRemoved = "participant_removed"
	SignalEventUpdated       = "event_updated"
	SignalCancelEvent        = "cancel_event"
	SignalManualNotification = "manual_notification"
)

// ParticipantAddedSignal is the payload of participant_added.
type ParticipantAddedSignal struct {
	SubscriptionID uuid.UUID
}

// ParticipantRemovedSignal is the payload of participant_removed.
type ParticipantRemovedSignal struct {
	SubscriptionID uuid.UUID
}

// EventUpdatedSignal is the payload of event_updated: the updated field bag. Fields left at their
// zero value are treated as unchanged. A non-nil StartDate is compared against the
// orchestrator's last known start date to decide whether schedules need to be rebuilt.
type EventUpdatedSignal struct {
	Name        *string
	StartDate   *time.Time
	EndDate     *time.Time
	Description *string
	Location    *string
}

// ManualNotificationSignal is the payload of manual_notification.
type ManualNotificationSignal struct {
	Title           string
	Body            string
	Severity        activities.Severity
	SubscriptionIDs []uuid.UUID
	TagFilter       []string
}

// EventOrchestratorArgs is the argument the orchestrator workflow is started with
// (start_event_orchestrator, §6).
type EventOrchestratorArgs struct {
	EventID uuid.UUID
}
