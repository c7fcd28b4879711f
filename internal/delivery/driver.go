// Package delivery is the Delivery Driver (C3): it fans a single notification out across the
// resolved delivery targets through shoutrrr's multi-backend dispatcher (gotify, ntfy, SMTP,
// generic webhook, Discord, Slack — whatever URL scheme the target's channel was configured
// with) and reports per-target results.
package delivery

import (
	"fmt"
	"log/slog"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/types"

	"github.com/soonish-io/notifycore/internal/resolver"
)

// Severity mirrors the severity enum carried on broadcasts and manual notifications, threaded
// through to the notification library's notify(title, body, severity) call (§4.4, §6).
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// priority maps severity onto the "priority" param recognized by shoutrrr's priority-aware
// backends (ntfy, gotify), so a critical notification actually renders differently than an info
// one instead of all three looking identical.
func (s Severity) priority() string {
	switch s {
	case SeverityWarning:
		return "4"
	case SeverityCritical:
		return "5"
	default:
		return "3"
	}
}

// EndpointResult is the delivery outcome for a single target, keyed by channel ID in Result.
type EndpointResult struct {
	ChannelName string
	Err         error
}

// Result is the aggregate outcome of one Dispatch call, matching the tagged
// {ok | partial(n,m) | failed(err)} result value required by §7's error-handling model.
type Result struct {
	Total       int
	Success     int
	Failed      int
	PerEndpoint map[string]EndpointResult
}

// Outcome classifies the result for the caller's retry/compensation decision.
type Outcome int

const (
	// OutcomeOK means every target succeeded.
	OutcomeOK Outcome = iota
	// OutcomePartial means at least one target succeeded and at least one failed.
	OutcomePartial
	// OutcomeFailed means every target failed, or there were no targets to deliver to.
	OutcomeFailed
)

// Outcome classifies r for the caller.
func (r Result) Outcome() Outcome {
	switch {
	case r.Total == 0 || r.Success == 0:
		return OutcomeFailed
	case r.Failed == 0:
		return OutcomeOK
	default:
		return OutcomePartial
	}
}

// Dispatch sends subject/body to every target. It never returns an error itself: a backend or
// library failure on a single target is caught and recorded as that target's EndpointResult,
// never allowed to fail the whole dispatch (§7 "catch library exceptions at the driver boundary
// and map to failed").
func Dispatch(targets []resolver.Target, subject, body string, severity Severity) *Result {
	result := &Result{Total: len(targets), PerEndpoint: map[string]EndpointResult{}}
	if len(targets) == 0 {
		return result
	}

	message := body
	if subject != "" {
		message = subject + "\n\n" + body
	}

	for _, target := range targets {
		err := sendOne(target.DeliveryURL, message, severity)
		result.PerEndpoint[target.ChannelID.String()] = EndpointResult{ChannelName: target.Name, Err: err}
		if err != nil {
			result.Failed++
			slog.Warn("delivery failed", "channel", target.Name, "error", err)
			continue
		}
		result.Success++
	}

	return result
}

// sendOne builds a one-shot sender for a single delivery URL and sends message through it,
// recovering from any panic raised inside the shoutrrr backend so a single misbehaving backend
// can never take down the whole dispatch.
func sendOne(url, message string, severity Severity) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delivery backend panicked: %v", r)
		}
	}()

	sender, createErr := shoutrrr.CreateSender(url)
	if createErr != nil {
		return fmt.Errorf("failed to create sender: %w", createErr)
	}

	errs := sender.Send(message, &types.Params{"priority": severity.priority()})
	for _, e := range errs {
		if e != nil {
			return fmt.Errorf("failed to send notification: %w", e)
		}
	}
	return nil
}
