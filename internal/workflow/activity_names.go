package workflow

// Activity names the orchestrator calls by string, matching the names Activities and
// ScheduleActivities methods are registered under in internal/workflow/worker.go. Calling by name
// rather than by function reference keeps the orchestrator decoupled from the activity struct's
// concrete wiring.
const (
	loadEventActivityName                   = "LoadEventActivity"
	createEventSchedulesActivityName        = "CreateEventSchedulesActivity"
	createSubscriptionSchedulesActivityName = "CreateSubscriptionSchedulesActivity"
	deleteSubscriptionSchedulesActivityName = "DeleteSubscriptionSchedulesActivity"
	deleteEventSchedulesActivityName        = "DeleteEventSchedulesActivity"
	broadcastActivityName                   = "BroadcastActivity"
	personalReminderActivityName            = "PersonalReminderActivity"
)
