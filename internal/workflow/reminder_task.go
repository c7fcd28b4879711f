package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/soonish-io/notifycore/internal/activities"
	"github.com/soonish-io/notifycore/internal/schedule"
)

// ReminderTaskWorkflowName is the name ReminderTaskWorkflow is registered under. The Schedule
// Registry launches it by this exact name (internal/schedule/registry.go).
const ReminderTaskWorkflowName = "ReminderTaskWorkflow"

// ReminderTaskWorkflow is C8: a short-lived, stateless durable execution that a single Temporal
// schedule fires once at a reminder's due instant. It fires the personal reminder for the one
// subscription and offset it was launched with, then completes.
func ReminderTaskWorkflow(ctx workflow.Context, args schedule.ReminderArgs) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	in := activities.PersonalReminderInput{
		EventID:        args.EventID,
		SubscriptionID: args.SubscriptionID,
		OffsetSeconds:  args.OffsetSeconds,
	}
	return workflow.ExecuteActivity(ctx, personalReminderActivityName, in).Get(ctx, nil)
}
