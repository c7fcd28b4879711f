// Package resolver is the Channel Resolver (C2): it turns a subscription's routing selectors into
// a concrete, de-duplicated set of delivery targets (§4.3).
package resolver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/soonish-io/notifycore/internal/config"
	"github.com/soonish-io/notifycore/internal/db/models"
	"github.com/soonish-io/notifycore/internal/storage"
)

// Target is one resolved delivery endpoint: a channel's identity plus its decrypted delivery URL,
// ready to hand to the Delivery Driver.
type Target struct {
	ChannelID   uuid.UUID
	Name        string
	DeliveryURL string
}

// Fallback is the service SMTP relay configuration (config.FallbackSMTPConfig) used when a
// subscription resolves to no channels at all, so a subscriber is never silently un-notified
// (§4.3 step 5). It is a distinct type, not a bare string, because the synthesized endpoint
// depends on the subscriber's own email and verified flag, not a single static URL.
type Fallback = config.FallbackSMTPConfig

// Resolve expands sub's routing selectors into the final, de-duplicated set of delivery targets,
// preserving the order in which each channel was first seen: explicit-channel selectors before
// tag selectors (§4.3 step 4). tagFilter, when non-empty, restricts tag selectors to tags present
// in the filter (used by manual notifications' selector_tag_filter).
func Resolve(ctx context.Context, s *storage.Scope, g *storage.Gateway, sub models.Full, tagFilter []string, fallback Fallback) ([]Target, error) {
	filterSet := toSet(tagFilter)

	explicitIDs := make([]uuid.UUID, 0, len(sub.Selectors))
	tagSelectors := make([]string, 0, len(sub.Selectors))
	for _, sel := range sub.Selectors {
		if sel.ChannelID != nil {
			explicitIDs = append(explicitIDs, *sel.ChannelID)
			continue
		}
		tag, ok := sel.IsTag()
		if !ok {
			continue
		}
		if len(filterSet) > 0 && !filterSet[tag] {
			continue
		}
		tagSelectors = append(tagSelectors, tag)
	}

	seen := map[uuid.UUID]bool{}
	var resolved []models.Channel

	if len(explicitIDs) > 0 {
		channels, err := s.ChannelsByIDs(ctx, explicitIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve explicit channels: %w", err)
		}
		for _, ch := range channels {
			if ch.Active && !seen[ch.ChannelID] {
				seen[ch.ChannelID] = true
				resolved = append(resolved, ch)
			}
		}
	}

	if len(tagSelectors) > 0 {
		all, err := s.ChannelsForSubscriber(ctx, sub.SubscriberID)
		if err != nil {
			return nil, fmt.Errorf("failed to load subscriber channels: %w", err)
		}
		wanted := toSet(tagSelectors)
		for _, ch := range all {
			if _, autosub := ch.IsAutosubTag(); autosub {
				continue
			}
			if wanted[models.NormalizeTag(ch.Tag)] && !seen[ch.ChannelID] {
				seen[ch.ChannelID] = true
				resolved = append(resolved, ch)
			}
		}
	}

	targets := make([]Target, 0, len(resolved))
	for _, ch := range resolved {
		deliveryURL, err := g.DecryptDeliveryURL(ch)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt delivery url for channel %s: %w", ch.ChannelID, err)
		}
		targets = append(targets, Target{ChannelID: ch.ChannelID, Name: ch.Name, DeliveryURL: deliveryURL})
	}

	if len(targets) > 0 {
		return targets, nil
	}

	// No routed channel resolved: fall back to the service SMTP relay, addressed to the
	// subscriber's own email and gated on their verified flag, so they are never silently
	// un-notified (§4.3 step 5, S5).
	target, ok := fallbackTarget(fallback, sub.Subscriber)
	if !ok {
		return nil, nil
	}
	return []Target{target}, nil
}

// fallbackTarget synthesizes a mailto-style smtp:// delivery target addressed to subscriber,
// using the credential pair selected by subscriber.Verified. It reports false when fallback is
// not configured or subscriber has no email on file.
func fallbackTarget(fallback Fallback, subscriber models.Subscriber) (Target, bool) {
	if !fallback.Enabled() || subscriber.Email == "" {
		return Target{}, false
	}
	credential := fallback.CredentialFor(subscriber.Verified)

	endpoint := url.URL{
		Scheme: "smtp",
		User:   url.UserPassword(credential.User, credential.AppPassword),
		Host:   fmt.Sprintf("%s:%s", fallback.Host, fallback.Port),
		Path:   "/",
	}
	query := url.Values{}
	query.Set("fromAddress", credential.User)
	query.Set("toAddresses", subscriber.Email)
	endpoint.RawQuery = query.Encode()

	return Target{ChannelID: uuid.Nil, Name: "fallback-smtp", DeliveryURL: endpoint.String()}, true
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[models.NormalizeTag(v)] = true
	}
	return set
}
