package activities

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/soonish-io/notifycore/internal/storage"
)

func TestActivities(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Activities Suite")
}

func subscriptionRows() []string {
	return []string{"subscription_id", "event_id", "subscriber_id", "auto_subscribed", "created_at"}
}

func subscriberRows() []string {
	return []string{"subscriber_id", "email", "verified", "organization_id", "created_at"}
}

func selectorRows() []string {
	return []string{"selector_id", "subscription_id", "channel_id", "tag"}
}

func preferenceRows() []string {
	return []string{"preference_id", "subscription_id", "offset_seconds"}
}

var _ = Describe("subscriptionsForBroadcast", func() {
	var (
		ctx   context.Context
		mock  pgxmock.PgxPoolIface
		scope *storage.Scope
		acts  *Activities
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		mock, err = pgxmock.NewPool()
		Expect(err).ToNot(HaveOccurred())
		scope = storage.NewScopeForTesting(mock)
		acts = &Activities{}
	})

	AfterEach(func() {
		mock.Close()
	})

	It("loads every subscriber of the event when no subset is given", func() {
		eventID := uuid.New()
		subscriptionID := uuid.New()
		subscriberID := uuid.New()

		mock.ExpectQuery(`SELECT .* FROM subscription WHERE`).
			WithArgs(eventID).
			WillReturnRows(pgxmock.NewRows(subscriptionRows()).AddRow(
				subscriptionID, eventID, subscriberID, false, time.Now(),
			))
		mock.ExpectQuery(`SELECT .* FROM subscriber WHERE`).
			WithArgs(subscriberID).
			WillReturnRows(pgxmock.NewRows(subscriberRows()).AddRow(
				subscriberID, "alice@example.com", true, nil, time.Now(),
			))
		mock.ExpectQuery(`SELECT .* FROM routing_selector WHERE`).
			WithArgs(subscriptionID).
			WillReturnRows(pgxmock.NewRows(selectorRows()))
		mock.ExpectQuery(`SELECT .* FROM reminder_preference WHERE`).
			WithArgs(subscriptionID).
			WillReturnRows(pgxmock.NewRows(preferenceRows()))

		subs, err := acts.subscriptionsForBroadcast(ctx, scope, eventID, nil)

		Expect(err).ToNot(HaveOccurred())
		Expect(subs).To(HaveLen(1))
		Expect(subs[0].SubscriptionID).To(Equal(subscriptionID))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("filters the explicit subset down to subscriptions actually on the event", func() {
		eventID := uuid.New()
		otherEventID := uuid.New()
		matchingID := uuid.New()
		mismatchedID := uuid.New()
		subscriberID := uuid.New()

		mock.ExpectQuery(`SELECT .* FROM subscription WHERE`).
			WithArgs(matchingID).
			WillReturnRows(pgxmock.NewRows(subscriptionRows()).AddRow(
				matchingID, eventID, subscriberID, false, time.Now(),
			))
		mock.ExpectQuery(`SELECT .* FROM subscriber WHERE`).
			WithArgs(subscriberID).
			WillReturnRows(pgxmock.NewRows(subscriberRows()).AddRow(
				subscriberID, "alice@example.com", true, nil, time.Now(),
			))
		mock.ExpectQuery(`SELECT .* FROM routing_selector WHERE`).
			WithArgs(matchingID).
			WillReturnRows(pgxmock.NewRows(selectorRows()))
		mock.ExpectQuery(`SELECT .* FROM reminder_preference WHERE`).
			WithArgs(matchingID).
			WillReturnRows(pgxmock.NewRows(preferenceRows()))

		mock.ExpectQuery(`SELECT .* FROM subscription WHERE`).
			WithArgs(mismatchedID).
			WillReturnRows(pgxmock.NewRows(subscriptionRows()).AddRow(
				mismatchedID, otherEventID, subscriberID, false, time.Now(),
			))
		mock.ExpectQuery(`SELECT .* FROM subscriber WHERE`).
			WithArgs(subscriberID).
			WillReturnRows(pgxmock.NewRows(subscriberRows()).AddRow(
				subscriberID, "alice@example.com", true, nil, time.Now(),
			))
		mock.ExpectQuery(`SELECT .* FROM routing_selector WHERE`).
			WithArgs(mismatchedID).
			WillReturnRows(pgxmock.NewRows(selectorRows()))
		mock.ExpectQuery(`SELECT .* FROM reminder_preference WHERE`).
			WithArgs(mismatchedID).
			WillReturnRows(pgxmock.NewRows(preferenceRows()))

		// subscriptionsForBroadcast hydrates every subscription in the subset before filtering by
		// event, since SubscriptionByID always hydrates; only the event-ID check afterward drops
		// mismatchedID from the result.
		subs, err := acts.subscriptionsForBroadcast(ctx, scope, eventID, []uuid.UUID{matchingID, mismatchedID})

		Expect(err).ToNot(HaveOccurred())
		Expect(subs).To(HaveLen(1))
		Expect(subs[0].SubscriptionID).To(Equal(matchingID))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})
})
