// Package activities hosts the Temporal activities the Event Orchestrator and Reminder Task
// workflows invoke to actually touch the database and dispatch notifications: the Broadcast
// Activity (C4) and the Personal-Reminder Activity (C5). Activities, unlike workflows, may block
// and call out to the database and the delivery driver directly.
package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/db/models"
	"github.com/soonish-io/notifycore/internal/delivery"
	"github.com/soonish-io/notifycore/internal/resolver"
	"github.com/soonish-io/notifycore/internal/storage"
)

func activityLogger() *slog.Logger {
	return slog.Default()
}

// Activities bundles the dependencies every activity method needs: the storage gateway to read
// and the service SMTP relay configuration the resolver synthesizes a fallback target from when a
// subscription resolves to no channels.
type Activities struct {
	Gateway  *storage.Gateway
	Fallback resolver.Fallback
}

// New builds an Activities bundle.
func New(gateway *storage.Gateway, fallback resolver.Fallback) *Activities {
	return &Activities{Gateway: gateway, Fallback: fallback}
}

// Severity mirrors the severity enum carried on broadcasts and manual notifications. It is an
// alias of delivery.Severity, not a distinct type, so it threads through to Dispatch with no
// conversion at the call site and still matches the one definition delivery owns.
type Severity = delivery.Severity

const (
	SeverityInfo     = delivery.SeverityInfo
	SeverityWarning  = delivery.SeverityWarning
	SeverityCritical = delivery.SeverityCritical
)

// BroadcastInput is the argument to BroadcastActivity.
type BroadcastInput struct {
	EventID           uuid.UUID
	Title             string
	Body              string
	Severity          Severity
	SubscriptionIDs   []uuid.UUID
	SelectorTagFilter []string
}

// SubscriptionOutcome is the per-subscription result inside a BroadcastResult.
type SubscriptionOutcome struct {
	SubscriptionID uuid.UUID
	Delivered      bool
	Pending        bool
	EndpointCount  int
}

// BroadcastResult is the aggregate outcome of BroadcastActivity.
type BroadcastResult struct {
	Subscriptions []SubscriptionOutcome
}

// BroadcastActivity implements C4: broadcasts title/body to every targeted subscription of an
// event, or a subset when SubscriptionIDs is set, restricting each subscription's selectors to
// SelectorTagFilter when it is non-empty.
func (a *Activities) BroadcastActivity(ctx context.Context, in BroadcastInput) (*BroadcastResult, error) {
	result := &BroadcastResult{}

	err := a.Gateway.Work(ctx, func(ctx context.Context, s *storage.Scope) error {
		subs, err := a.subscriptionsForBroadcast(ctx, s, in.EventID, in.SubscriptionIDs)
		if err != nil {
			return err
		}

		logger := activityLogger()
		logger.InfoContext(ctx, "broadcasting", "event_id", in.EventID, "subscriptions", humanize.Comma(int64(len(subs))))

		for _, sub := range subs {
			targets, err := resolver.Resolve(ctx, s, a.Gateway, sub, in.SelectorTagFilter, a.Fallback)
			if err != nil {
				return fmt.Errorf("failed to resolve channels for subscription %s: %w", sub.SubscriptionID, err)
			}

			if len(targets) == 0 {
				result.Subscriptions = append(result.Subscriptions, SubscriptionOutcome{
					SubscriptionID: sub.SubscriptionID,
					Pending:        true,
				})
				continue
			}

			dispatch := delivery.Dispatch(targets, in.Title, in.Body, in.Severity)
			result.Subscriptions = append(result.Subscriptions, SubscriptionOutcome{
				SubscriptionID: sub.SubscriptionID,
				Delivered:      dispatch.Outcome() != delivery.OutcomeFailed,
				EndpointCount:  dispatch.Total,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Activities) subscriptionsForBroadcast(ctx context.Context, s *storage.Scope, eventID uuid.UUID, subset []uuid.UUID) ([]models.Full, error) {
	if len(subset) == 0 {
		return s.SubscribersForEvent(ctx, eventID)
	}

	subs := make([]models.Full, 0, len(subset))
	for _, id := range subset {
		full, err := s.SubscriptionByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load subscription %s: %w", id, err)
		}
		if full.EventID != eventID {
			continue
		}
		subs = append(subs, *full)
	}
	return subs, nil
}

// PersonalReminderInput is the argument to PersonalReminderActivity.
type PersonalReminderInput struct {
	EventID        uuid.UUID
	SubscriptionID uuid.UUID
	OffsetSeconds  int64
}

// PersonalReminderActivity implements C5: fires a single personal reminder for one subscription
// at one offset. A subscription that no longer exists by the time the schedule fires is a no-op,
// not an error (the subscriber unsubscribed or was removed after the reminder was scheduled).
func (a *Activities) PersonalReminderActivity(ctx context.Context, in PersonalReminderInput) (*BroadcastResult, error) {
	result := &BroadcastResult{}

	err := a.Gateway.Work(ctx, func(ctx context.Context, s *storage.Scope) error {
		event, err := s.EventByID(ctx, in.EventID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load event %s: %w", in.EventID, err)
		}

		sub, err := s.SubscriptionByID(ctx, in.SubscriptionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load subscription %s: %w", in.SubscriptionID, err)
		}

		body := fmt.Sprintf("%s starts in %s", event.Name, humanOffset(in.OffsetSeconds))

		targets, err := resolver.Resolve(ctx, s, a.Gateway, *sub, nil, a.Fallback)
		if err != nil {
			return fmt.Errorf("failed to resolve channels for subscription %s: %w", sub.SubscriptionID, err)
		}

		outcome := SubscriptionOutcome{SubscriptionID: sub.SubscriptionID}
		if len(targets) == 0 {
			outcome.Pending = true
		} else {
			dispatch := delivery.Dispatch(targets, "", body, SeverityInfo)
			outcome.Delivered = dispatch.Outcome() != delivery.OutcomeFailed
			outcome.EndpointCount = dispatch.Total
		}
		result.Subscriptions = []SubscriptionOutcome{outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
