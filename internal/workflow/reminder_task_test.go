package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/soonish-io/notifycore/internal/activities"
	"github.com/soonish-io/notifycore/internal/schedule"
)

func TestReminderTaskWorkflowFiresPersonalReminder(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	args := schedule.ReminderArgs{
		EventID:        uuid.New(),
		SubscriptionID: uuid.New(),
		OffsetSeconds:  3600,
	}

	var captured activities.PersonalReminderInput
	env.OnActivity(personalReminderActivityName, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.PersonalReminderInput) (*activities.BroadcastResult, error) {
			captured = in
			return &activities.BroadcastResult{}, nil
		})

	env.ExecuteWorkflow(ReminderTaskWorkflow, args)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, args.EventID, captured.EventID)
	require.Equal(t, args.SubscriptionID, captured.SubscriptionID)
	require.Equal(t, args.OffsetSeconds, captured.OffsetSeconds)
}

func TestReminderTaskWorkflowPropagatesActivityFailure(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	env.OnActivity(personalReminderActivityName, mock.Anything, mock.Anything).Return(
		(*activities.BroadcastResult)(nil), errors.New("personal reminder activity failed"))

	env.ExecuteWorkflow(ReminderTaskWorkflow, schedule.ReminderArgs{
		EventID:        uuid.New(),
		SubscriptionID: uuid.New(),
		OffsetSeconds:  86400,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
