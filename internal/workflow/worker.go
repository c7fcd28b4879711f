package workflow

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/soonish-io/notifycore/internal/activities"
)

// RegisterWorker builds a Temporal worker.Worker bound to taskQueue, with the Event Orchestrator
// and Reminder Task workflows plus every activity they call registered under the exact names
// looked up elsewhere in this package and in internal/schedule.
func RegisterWorker(c client.Client, taskQueue string, acts *activities.Activities, scheduleActs *activities.ScheduleActivities) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflowWithOptions(EventOrchestratorWorkflow, workflow.RegisterOptions{Name: EventOrchestratorWorkflowName})
	w.RegisterWorkflowWithOptions(ReminderTaskWorkflow, workflow.RegisterOptions{Name: ReminderTaskWorkflowName})

	w.RegisterActivityWithOptions(acts.BroadcastActivity, activity.RegisterOptions{Name: broadcastActivityName})
	w.RegisterActivityWithOptions(acts.PersonalReminderActivity, activity.RegisterOptions{Name: personalReminderActivityName})

	w.RegisterActivityWithOptions(scheduleActs.LoadEventActivity, activity.RegisterOptions{Name: loadEventActivityName})
	w.RegisterActivityWithOptions(scheduleActs.CreateEventSchedulesActivity, activity.RegisterOptions{Name: createEventSchedulesActivityName})
	w.RegisterActivityWithOptions(scheduleActs.CreateSubscriptionSchedulesActivity, activity.RegisterOptions{Name: createSubscriptionSchedulesActivityName})
	w.RegisterActivityWithOptions(scheduleActs.DeleteSubscriptionSchedulesActivity, activity.RegisterOptions{Name: deleteSubscriptionSchedulesActivityName})
	w.RegisterActivityWithOptions(scheduleActs.DeleteEventSchedulesActivity, activity.RegisterOptions{Name: deleteEventSchedulesActivityName})

	return w
}
