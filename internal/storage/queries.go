package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stephenafamo/bob/dialect/psql"

	"github.com/soonish-io/notifycore/internal/db/models"
)

// EventByID loads the event identified by id.
func (s *Scope) EventByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return find[models.Event](ctx, s.tx, id)
}

// EventByWorkflowID loads the event bound to the given orchestrator workflow ID. Used when a
// signal arrives at the edge keyed by workflow ID rather than event UUID.
func (s *Scope) EventByWorkflowID(ctx context.Context, workflowID string) (*models.Event, error) {
	records, err := search[models.Event](ctx, s.tx, psql.Quote("workflow_id").EQ(psql.Arg(workflowID)))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// CreateEvent persists a newly created event and returns the stored record, including its
// database-assigned created_at.
func (s *Scope) CreateEvent(ctx context.Context, event models.Event) (*models.Event, error) {
	return create[models.Event](ctx, s.tx, event)
}

// UpdateEvent applies changes to the named fields of an existing event.
func (s *Scope) UpdateEvent(ctx context.Context, id uuid.UUID, event models.Event, fields ...string) (*models.Event, error) {
	return update[models.Event](ctx, s.tx, id, event, fields)
}

// SubscribersForEvent returns every subscriber currently subscribed to event, eagerly loaded with
// their selectors and reminder preferences so the Channel Resolver and Schedule Registry never
// need to reach back into the database mid-computation.
func (s *Scope) SubscribersForEvent(ctx context.Context, eventID uuid.UUID) ([]models.Full, error) {
	subs, err := search[models.Subscription](ctx, s.tx, psql.Quote("event_id").EQ(psql.Arg(eventID)))
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for event %s: %w", eventID, err)
	}
	return s.hydrate(ctx, subs)
}

// SubscriptionByID loads a single subscription, eagerly hydrated the same way
// SubscribersForEvent hydrates its results.
func (s *Scope) SubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Full, error) {
	sub, err := find[models.Subscription](ctx, s.tx, id)
	if err != nil {
		return nil, err
	}
	full, err := s.hydrate(ctx, []models.Subscription{*sub})
	if err != nil {
		return nil, err
	}
	return &full[0], nil
}

// SubscriptionByEventAndSubscriber looks up the (event_id, subscriber_id) unique subscription, if
// any, used by auto-subscription enrollment to skip a subscriber already on the event.
func (s *Scope) SubscriptionByEventAndSubscriber(ctx context.Context, eventID, subscriberID uuid.UUID) (*models.Subscription, error) {
	where := psql.Raw("event_id = ? AND subscriber_id = ?", eventID, subscriberID)
	subs, err := search[models.Subscription](ctx, s.tx, where)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNotFound
	}
	return &subs[0], nil
}

// hydrate attaches Subscriber, Selectors and ReminderPreferences to each bare Subscription.
func (s *Scope) hydrate(ctx context.Context, subs []models.Subscription) ([]models.Full, error) {
	full := make([]models.Full, 0, len(subs))
	for _, sub := range subs {
		subscriber, err := find[models.Subscriber](ctx, s.tx, sub.SubscriberID)
		if err != nil {
			return nil, fmt.Errorf("failed to load subscriber %s: %w", sub.SubscriberID, err)
		}

		selectors, err := search[models.RoutingSelector](ctx, s.tx,
			psql.Quote("subscription_id").EQ(psql.Arg(sub.SubscriptionID)))
		if err != nil {
			return nil, fmt.Errorf("failed to load routing selectors for subscription %s: %w", sub.SubscriptionID, err)
		}

		prefs, err := search[models.ReminderPreference](ctx, s.tx,
			psql.Quote("subscription_id").EQ(psql.Arg(sub.SubscriptionID)))
		if err != nil {
			return nil, fmt.Errorf("failed to load reminder preferences for subscription %s: %w", sub.SubscriptionID, err)
		}

		full = append(full, models.Full{
			Subscription:        sub,
			Subscriber:          *subscriber,
			Selectors:           selectors,
			ReminderPreferences: prefs,
		})
	}
	return full, nil
}

// CreateSubscription inserts a subscription together with its routing selectors and reminder
// preferences, all in the caller's work scope so a partial subscription is never observable.
func (s *Scope) CreateSubscription(ctx context.Context, full models.Full) (*models.Full, error) {
	sub, err := create[models.Subscription](ctx, s.tx, full.Subscription)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	selectors := make([]models.RoutingSelector, 0, len(full.Selectors))
	for _, sel := range full.Selectors {
		sel.SubscriptionID = sub.SubscriptionID
		stored, err := create[models.RoutingSelector](ctx, s.tx, sel)
		if err != nil {
			return nil, fmt.Errorf("failed to create routing selector: %w", err)
		}
		selectors = append(selectors, *stored)
	}

	prefs := make([]models.ReminderPreference, 0, len(full.ReminderPreferences))
	for _, pref := range full.ReminderPreferences {
		pref.SubscriptionID = sub.SubscriptionID
		stored, err := create[models.ReminderPreference](ctx, s.tx, pref)
		if err != nil {
			return nil, fmt.Errorf("failed to create reminder preference: %w", err)
		}
		prefs = append(prefs, *stored)
	}

	return &models.Full{
		Subscription:        *sub,
		Subscriber:          full.Subscriber,
		Selectors:           selectors,
		ReminderPreferences: prefs,
	}, nil
}

// DeleteSubscription removes a subscription and, via ON DELETE CASCADE, its selectors, reminder
// preferences and unsubscribe tokens (§3).
func (s *Scope) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	rows, err := deleteRecord[models.Subscription](ctx, s.tx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ChannelsForSubscriber returns every active channel owned by subscriberID.
func (s *Scope) ChannelsForSubscriber(ctx context.Context, subscriberID uuid.UUID) ([]models.Channel, error) {
	where := psql.Raw("owner_subscriber_id = ? AND active", subscriberID)
	return search[models.Channel](ctx, s.tx, where)
}

// ChannelsForOrganization returns every active channel owned by organizationID.
func (s *Scope) ChannelsForOrganization(ctx context.Context, organizationID uuid.UUID) ([]models.Channel, error) {
	where := psql.Raw("owner_organization_id = ? AND active", organizationID)
	return search[models.Channel](ctx, s.tx, where)
}

// ChannelByID loads a single channel.
func (s *Scope) ChannelByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	return find[models.Channel](ctx, s.tx, id)
}

// ChannelsByIDs loads a batch of channels in one query, preserving no particular order. Used by
// the Channel Resolver to turn a routing selector's set of explicit channel IDs into records.
func (s *Scope) ChannelsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Channel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where := psql.Raw("channel_id = ANY(?)", ids)
	return search[models.Channel](ctx, s.tx, where)
}

// AutosubChannelsForTag returns every active channel, scoped to the given audience, whose tag is
// an autosub:<tag> enrollment rule matching eventTag (§4.2's auto-subscription mechanism).
// A nil organizationID selects the public scope: channels with no organization owner, i.e. those
// owned by any individual subscriber. For an organization-scoped event this matches both channels the organization itself owns
// (Enroll enrolls every member for these) and channels owned by an individual subscriber who is
// themselves a member of the organization (S4): owner_organization_id alone misses the latter,
// since Channel has no organization_id column of its own — only a link through its subscriber
// owner.
func (s *Scope) AutosubChannelsForTag(ctx context.Context, eventTag string, organizationID *uuid.UUID) ([]models.Channel, error) {
	autosubTag := models.AutosubTagPrefix + models.NormalizeTag(eventTag)

	if organizationID != nil {
		where := psql.Raw(
			"lower(tag) = ? AND active AND (owner_organization_id = ? OR owner_subscriber_id IN (SELECT subscriber_id FROM subscriber WHERE organization_id = ?))",
			autosubTag, *organizationID, *organizationID,
		)
		return search[models.Channel](ctx, s.tx, where)
	}
	where := psql.Raw("lower(tag) = ? AND active AND owner_organization_id IS NULL", autosubTag)
	return search[models.Channel](ctx, s.tx, where)
}

// SubscribersInOrganization returns every subscriber whose organization_id = organizationID. Used
// by auto-subscription to enroll every member when the matching autosub channel is owned by the
// organization itself rather than by an individual subscriber.
func (s *Scope) SubscribersInOrganization(ctx context.Context, organizationID uuid.UUID) ([]models.Subscriber, error) {
	where := psql.Quote("organization_id").EQ(psql.Arg(organizationID))
	return search[models.Subscriber](ctx, s.tx, where)
}

// DecryptDeliveryURL recovers the plaintext delivery URL for a channel. The only place in the
// system this is ever called from is the Channel Resolver building delivery targets, inside the
// same work scope that loaded the channel.
func (g *Gateway) DecryptDeliveryURL(channel models.Channel) (string, error) {
	return g.cipher.Open(channel.DeliveryURLCipher)
}

// EncryptDeliveryURL seals a plaintext delivery URL for storage. Called when a channel is created
// or its delivery URL is changed.
func (g *Gateway) EncryptDeliveryURL(url string) ([]byte, error) {
	return g.cipher.Seal(url)
}

// UnsubscribeTokenByValue loads the token row for the literal token string presented at the
// unsubscribe edge.
func (s *Scope) UnsubscribeTokenByValue(ctx context.Context, token string) (*models.UnsubscribeToken, error) {
	return find[models.UnsubscribeToken](ctx, s.tx, token)
}

// CreateUnsubscribeToken persists a newly minted token.
func (s *Scope) CreateUnsubscribeToken(ctx context.Context, t models.UnsubscribeToken) (*models.UnsubscribeToken, error) {
	return create[models.UnsubscribeToken](ctx, s.tx, t)
}

// ErrTokenAlreadyUsed is returned by ConsumeUnsubscribeToken when the token exists but has
// already been consumed.
var ErrTokenAlreadyUsed = errors.New("unsubscribe token already used")

// ErrTokenExpired is returned by ConsumeUnsubscribeToken when the token exists, is unused, but
// has passed its expiry (I6).
var ErrTokenExpired = errors.New("unsubscribe token expired")

// ConsumeUnsubscribeToken validates and marks a token used in one step, so that two concurrent
// requests presenting the same token can never both succeed. Returns the token's subscription ID
// on success.
func (s *Scope) ConsumeUnsubscribeToken(ctx context.Context, token string, now time.Time) (uuid.UUID, error) {
	t, err := find[models.UnsubscribeToken](ctx, s.tx, token)
	if err != nil {
		return uuid.Nil, err
	}
	if t.UsedAt != nil {
		return uuid.Nil, ErrTokenAlreadyUsed
	}
	if !now.Before(t.ExpiresAt) {
		return uuid.Nil, ErrTokenExpired
	}

	t.UsedAt = &now
	if _, err := update[models.UnsubscribeToken](ctx, s.tx, token, *t, []string{"UsedAt"}); err != nil {
		return uuid.Nil, fmt.Errorf("failed to mark token used: %w", err)
	}
	return t.SubscriptionID, nil
}
