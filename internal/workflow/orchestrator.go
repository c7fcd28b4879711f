package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/soonish-io/notifycore/internal/activities"
	"github.com/soonish-io/notifycore/internal/db/models"
)

// EventOrchestratorWorkflowName is the name EventOrchestratorWorkflow is registered under. The
// external edge starts a workflow with this name, ID'd by the event's own workflow_id, and
// signals it by that same ID (§4.8, §6).
const EventOrchestratorWorkflowName = "EventOrchestratorWorkflow"

// orchestratorState is the durable-execution-local state the spec calls last_start_date; it is
// never persisted to the database, only held in the workflow's own replay-safe memory.
type orchestratorState struct {
	lastStartDate time.Time
}

// EventOrchestratorWorkflow is one durable execution per event (C7). It validates the event
// exists, creates its initial reminder schedules, then serially processes signals until the
// event's start date has passed by a tolerance or a cancel_event signal arrives, at which point
// it tears down every schedule it owns and completes.
func EventOrchestratorWorkflow(ctx workflow.Context, args EventOrchestratorArgs) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var event *models.Event
	if err := workflow.ExecuteActivity(ctx, loadEventActivityName, args.EventID).Get(ctx, &event); err != nil {
		// Event doesn't exist (or couldn't be loaded): nothing to orchestrate.
		return nil
	}

	state := &orchestratorState{lastStartDate: event.StartDate}

	if err := workflow.ExecuteActivity(ctx, createEventSchedulesActivityName, args.EventID, event.StartDate).Get(ctx, nil); err != nil {
		return err
	}

	participantAddedCh := workflow.GetSignalChannel(ctx, SignalParticipantAdded)
	participantRemovedCh := workflow.GetSignalChannel(ctx, SignalParticipantRemoved)
	eventUpdatedCh := workflow.GetSignalChannel(ctx, SignalEventUpdated)
	cancelEventCh := workflow.GetSignalChannel(ctx, SignalCancelEvent)
	manualNotificationCh := workflow.GetSignalChannel(ctx, SignalManualNotification)

	deadline := terminationDeadline(event)

	for {
		selector := workflow.NewSelector(ctx)
		terminate := false
		cancelled := false

		selector.AddReceive(participantAddedCh, func(c workflow.ReceiveChannel, more bool) {
			var signal ParticipantAddedSignal
			c.Receive(ctx, &signal)
			_ = workflow.ExecuteActivity(ctx, createSubscriptionSchedulesActivityName, args.EventID, state.lastStartDate, signal.SubscriptionID).Get(ctx, nil)
		})

		selector.AddReceive(participantRemovedCh, func(c workflow.ReceiveChannel, more bool) {
			var signal ParticipantRemovedSignal
			c.Receive(ctx, &signal)
			_ = workflow.ExecuteActivity(ctx, deleteSubscriptionSchedulesActivityName, args.EventID, signal.SubscriptionID).Get(ctx, nil)
		})

		selector.AddReceive(eventUpdatedCh, func(c workflow.ReceiveChannel, more bool) {
			var signal EventUpdatedSignal
			c.Receive(ctx, &signal)

			broadcast := activities.BroadcastInput{
				EventID:  args.EventID,
				Title:    "Event updated",
				Body:     describeUpdate(signal),
				Severity: activities.SeverityInfo,
			}
			_ = workflow.ExecuteActivity(ctx, broadcastActivityName, broadcast).Get(ctx, nil)

			if signal.StartDate != nil && !signal.StartDate.Equal(state.lastStartDate) {
				_ = workflow.ExecuteActivity(ctx, deleteEventSchedulesActivityName, args.EventID).Get(ctx, nil)
				_ = workflow.ExecuteActivity(ctx, createEventSchedulesActivityName, args.EventID, *signal.StartDate).Get(ctx, nil)
				state.lastStartDate = *signal.StartDate
				if signal.EndDate != nil {
					deadline = *signal.EndDate
				} else {
					deadline = state.lastStartDate.Add(24 * time.Hour)
				}
			}
		})

		selector.AddReceive(cancelEventCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, nil)
			broadcast := activities.BroadcastInput{
				EventID:  args.EventID,
				Title:    "Event cancelled",
				Body:     "This event has been cancelled.",
				Severity: activities.SeverityCritical,
			}
			_ = workflow.ExecuteActivity(ctx, broadcastActivityName, broadcast).Get(ctx, nil)
			_ = workflow.ExecuteActivity(ctx, deleteEventSchedulesActivityName, args.EventID).Get(ctx, nil)
			cancelled = true
			terminate = true
		})

		selector.AddReceive(manualNotificationCh, func(c workflow.ReceiveChannel, more bool) {
			var signal ManualNotificationSignal
			c.Receive(ctx, &signal)
			broadcast := activities.BroadcastInput{
				EventID:           args.EventID,
				Title:             signal.Title,
				Body:              signal.Body,
				Severity:          signal.Severity,
				SubscriptionIDs:   signal.SubscriptionIDs,
				SelectorTagFilter: signal.TagFilter,
			}
			_ = workflow.ExecuteActivity(ctx, broadcastActivityName, broadcast).Get(ctx, nil)
		})

		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		timer := workflow.NewTimer(timerCtx, deadline.Sub(workflow.Now(ctx)))
		selector.AddFuture(timer, func(f workflow.Future) {
			if err := f.Get(timerCtx, nil); err == nil {
				terminate = true
			}
		})

		selector.Select(ctx)
		cancelTimer()

		if terminate {
			if !cancelled {
				_ = workflow.ExecuteActivity(ctx, deleteEventSchedulesActivityName, args.EventID).Get(ctx, nil)
			}
			return nil
		}
	}
}

// terminationDeadline picks the instant the orchestrator self-terminates absent a cancel_event
// signal: the event's own end_date if it has one, else start_date plus a day's tolerance (§4.8).
func terminationDeadline(event *models.Event) time.Time {
	if event.EndDate != nil {
		return *event.EndDate
	}
	return event.StartDate.Add(24 * time.Hour)
}

func describeUpdate(signal EventUpdatedSignal) string {
	switch {
	case signal.Name != nil:
		return "The event has been updated: " + *signal.Name
	default:
		return "The event has been updated."
	}
}
