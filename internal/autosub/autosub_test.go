package autosub

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/soonish-io/notifycore/internal/db/models"
	"github.com/soonish-io/notifycore/internal/storage"
)

func TestAutosub(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auto-subscription Suite")
}

func channelRows() []string {
	return []string{
		"channel_id", "owner_subscriber_id", "owner_organization_id", "name", "delivery_url", "tag", "active", "created_at",
	}
}

func subscriptionRows() []string {
	return []string{"subscription_id", "event_id", "subscriber_id", "auto_subscribed", "created_at"}
}

var _ = Describe("Enroll", func() {
	var (
		ctx   context.Context
		mock  pgxmock.PgxPoolIface
		scope *storage.Scope
		event models.Event
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		mock, err = pgxmock.NewPool()
		Expect(err).ToNot(HaveOccurred())
		scope = storage.NewScopeForTesting(mock)
	})

	AfterEach(func() {
		mock.Close()
	})

	It("enrolls every member of an organization-owned autosub channel", func() {
		orgID := uuid.New()
		channelID := uuid.New()
		memberID := uuid.New()
		event = models.Event{EventID: uuid.New(), OrganizationID: &orgID}

		mock.ExpectQuery(`(?s)SELECT .* FROM channel WHERE`).
			WithArgs("autosub:standup", orgID, orgID).
			WillReturnRows(pgxmock.NewRows(channelRows()).AddRow(
				channelID, nil, &orgID, "org-wide", []byte("cipher"), "autosub:standup", true, time.Now(),
			))

		mock.ExpectQuery(`SELECT .* FROM subscriber WHERE`).
			WithArgs(orgID).
			WillReturnRows(pgxmock.NewRows([]string{"subscriber_id", "email", "verified", "organization_id", "created_at"}).
				AddRow(memberID, "member@example.com", true, &orgID, time.Now()))

		mock.ExpectQuery(`SELECT .* FROM subscription WHERE`).
			WithArgs(event.EventID, memberID).
			WillReturnRows(pgxmock.NewRows(subscriptionRows()))

		mock.ExpectQuery(`INSERT INTO subscription`).
			WillReturnRows(pgxmock.NewRows(subscriptionRows()).AddRow(
				uuid.New(), event.EventID, memberID, true, time.Now(),
			))
		mock.ExpectQuery(`INSERT INTO routing_selector`).
			WillReturnRows(pgxmock.NewRows([]string{"selector_id", "subscription_id", "channel_id", "tag"}).AddRow(
				uuid.New(), uuid.New(), &channelID, nil,
			))
		for range DefaultReminderOffsets {
			mock.ExpectQuery(`INSERT INTO reminder_preference`).
				WillReturnRows(pgxmock.NewRows([]string{"preference_id", "subscription_id", "offset_seconds"}).AddRow(
					uuid.New(), uuid.New(), int64(3600),
				))
		}

		created, err := Enroll(ctx, scope, event, []string{"standup"})

		Expect(err).ToNot(HaveOccurred())
		Expect(created).To(HaveLen(1))
		Expect(created[0].SubscriberID).To(Equal(memberID))
		Expect(created[0].Selectors).To(HaveLen(1))
		Expect(created[0].Selectors[0].ChannelID).ToNot(BeNil())
		Expect(*created[0].Selectors[0].ChannelID).To(Equal(channelID))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("skips a member who already has a subscription to the event", func() {
		orgID := uuid.New()
		channelID := uuid.New()
		memberID := uuid.New()
		event = models.Event{EventID: uuid.New(), OrganizationID: &orgID}

		mock.ExpectQuery(`(?s)SELECT .* FROM channel WHERE`).
			WithArgs("autosub:standup", orgID, orgID).
			WillReturnRows(pgxmock.NewRows(channelRows()).AddRow(
				channelID, nil, &orgID, "org-wide", []byte("cipher"), "autosub:standup", true, time.Now(),
			))

		mock.ExpectQuery(`SELECT .* FROM subscriber WHERE`).
			WithArgs(orgID).
			WillReturnRows(pgxmock.NewRows([]string{"subscriber_id", "email", "verified", "organization_id", "created_at"}).
				AddRow(memberID, "member@example.com", true, &orgID, time.Now()))

		mock.ExpectQuery(`SELECT .* FROM subscription WHERE`).
			WithArgs(event.EventID, memberID).
			WillReturnRows(pgxmock.NewRows(subscriptionRows()).AddRow(
				uuid.New(), event.EventID, memberID, false, time.Now(),
			))

		created, err := Enroll(ctx, scope, event, []string{"standup"})

		Expect(err).ToNot(HaveOccurred())
		Expect(created).To(BeEmpty())
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("enrolls the owner directly for a subscriber-owned autosub channel", func() {
		channelID := uuid.New()
		ownerID := uuid.New()
		event = models.Event{EventID: uuid.New(), OrganizationID: nil}

		mock.ExpectQuery(`SELECT .* FROM channel WHERE.*owner_organization_id IS NULL`).
			WithArgs("autosub:release").
			WillReturnRows(pgxmock.NewRows(channelRows()).AddRow(
				channelID, &ownerID, nil, "alice-slack", []byte("cipher"), "autosub:release", true, time.Now(),
			))

		mock.ExpectQuery(`SELECT .* FROM subscription WHERE`).
			WithArgs(event.EventID, ownerID).
			WillReturnRows(pgxmock.NewRows(subscriptionRows()))

		mock.ExpectQuery(`INSERT INTO subscription`).
			WillReturnRows(pgxmock.NewRows(subscriptionRows()).AddRow(
				uuid.New(), event.EventID, ownerID, true, time.Now(),
			))
		mock.ExpectQuery(`INSERT INTO routing_selector`).
			WillReturnRows(pgxmock.NewRows([]string{"selector_id", "subscription_id", "channel_id", "tag"}).AddRow(
				uuid.New(), uuid.New(), &channelID, nil,
			))
		for range DefaultReminderOffsets {
			mock.ExpectQuery(`INSERT INTO reminder_preference`).
				WillReturnRows(pgxmock.NewRows([]string{"preference_id", "subscription_id", "offset_seconds"}).AddRow(
					uuid.New(), uuid.New(), int64(3600),
				))
		}

		created, err := Enroll(ctx, scope, event, []string{"release"})

		Expect(err).ToNot(HaveOccurred())
		Expect(created).To(HaveLen(1))
		Expect(created[0].SubscriberID).To(Equal(ownerID))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})
})
