package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock/v4"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Scope Suite")
}

var _ = Describe("AutosubChannelsForTag", func() {
	var (
		ctx   context.Context
		mock  pgxmock.PgxPoolIface
		scope *Scope
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		mock, err = pgxmock.NewPool()
		Expect(err).ToNot(HaveOccurred())
		scope = NewScopeForTesting(mock)
	})

	AfterEach(func() {
		mock.Close()
	})

	It("matches both organization-owned and member-owned channels for an org-scoped event", func() {
		orgID := uuid.New()
		channelID := uuid.New()
		memberChannelID := uuid.New()
		memberID := uuid.New()

		rows := pgxmock.NewRows([]string{
			"channel_id", "owner_subscriber_id", "owner_organization_id", "name", "delivery_url", "tag", "active", "created_at",
		}).AddRow(
			channelID, nil, &orgID, "org-wide", []byte("cipher"), "autosub:standup", true, time.Now(),
		).AddRow(
			memberChannelID, &memberID, nil, "alice-slack", []byte("cipher"), "autosub:standup", true, time.Now(),
		)

		mock.ExpectQuery(`(?s)SELECT .* FROM channel WHERE.*owner_organization_id.*owner_subscriber_id`).
			WithArgs("autosub:standup", orgID, orgID).
			WillReturnRows(rows)

		channels, err := scope.AutosubChannelsForTag(ctx, "Standup", &orgID)

		Expect(err).ToNot(HaveOccurred())
		Expect(channels).To(HaveLen(2))
		Expect(channels[0].ChannelID).To(Equal(channelID))
		Expect(channels[1].ChannelID).To(Equal(memberChannelID))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("matches only subscriber-owned channels for a public event", func() {
		channelID := uuid.New()
		subscriberID := uuid.New()

		rows := pgxmock.NewRows([]string{
			"channel_id", "owner_subscriber_id", "owner_organization_id", "name", "delivery_url", "tag", "active", "created_at",
		}).AddRow(
			channelID, &subscriberID, nil, "public-feed", []byte("cipher"), "autosub:release", true, time.Now(),
		)

		mock.ExpectQuery(`(?s)SELECT .* FROM channel WHERE.*owner_organization_id IS NULL`).
			WithArgs("autosub:release").
			WillReturnRows(rows)

		channels, err := scope.AutosubChannelsForTag(ctx, "release", nil)

		Expect(err).ToNot(HaveOccurred())
		Expect(channels).To(HaveLen(1))
		Expect(channels[0].OwnerOrganizationID).To(BeNil())
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})
})

var _ = Describe("SubscribersInOrganization", func() {
	It("returns every member of the organization", func() {
		mock, err := pgxmock.NewPool()
		Expect(err).ToNot(HaveOccurred())
		defer mock.Close()
		scope := NewScopeForTesting(mock)

		orgID := uuid.New()
		member1, member2 := uuid.New(), uuid.New()

		rows := pgxmock.NewRows([]string{
			"subscriber_id", "email", "verified", "organization_id", "created_at",
		}).AddRow(
			member1, "alice@example.com", true, &orgID, time.Now(),
		).AddRow(
			member2, "bob@example.com", false, &orgID, time.Now(),
		)

		mock.ExpectQuery(`SELECT .* FROM subscriber WHERE`).
			WithArgs(orgID).
			WillReturnRows(rows)

		members, err := scope.SubscribersInOrganization(context.Background(), orgID)

		Expect(err).ToNot(HaveOccurred())
		Expect(members).To(HaveLen(2))
		Expect(members[0].SubscriberID).To(Equal(member1))
		Expect(members[1].SubscriberID).To(Equal(member2))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})
})

var _ = Describe("ConsumeUnsubscribeToken", func() {
	var (
		ctx   context.Context
		mock  pgxmock.PgxPoolIface
		scope *Scope
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		mock, err = pgxmock.NewPool()
		Expect(err).ToNot(HaveOccurred())
		scope = NewScopeForTesting(mock)
	})

	AfterEach(func() {
		mock.Close()
	})

	It("rejects an already-used token without touching the row", func() {
		token := "tok-used"
		subscriptionID := uuid.New()
		usedAt := time.Now().Add(-time.Hour)

		rows := pgxmock.NewRows([]string{
			"token", "subscription_id", "expires_at", "used_at", "created_at",
		}).AddRow(
			token, subscriptionID, time.Now().Add(time.Hour), &usedAt, time.Now(),
		)
		mock.ExpectQuery(`SELECT .* FROM unsubscribe_token WHERE`).WithArgs(token).WillReturnRows(rows)

		_, err := scope.ConsumeUnsubscribeToken(ctx, token, time.Now())

		Expect(err).To(Equal(ErrTokenAlreadyUsed))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("rejects an expired, unused token", func() {
		token := "tok-expired"
		subscriptionID := uuid.New()

		rows := pgxmock.NewRows([]string{
			"token", "subscription_id", "expires_at", "used_at", "created_at",
		}).AddRow(
			token, subscriptionID, time.Now().Add(-time.Minute), nil, time.Now().Add(-time.Hour),
		)
		mock.ExpectQuery(`SELECT .* FROM unsubscribe_token WHERE`).WithArgs(token).WillReturnRows(rows)

		_, err := scope.ConsumeUnsubscribeToken(ctx, token, time.Now())

		Expect(err).To(Equal(ErrTokenExpired))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("marks a valid token used and returns its subscription ID", func() {
		token := "tok-valid"
		subscriptionID := uuid.New()

		selectRows := pgxmock.NewRows([]string{
			"token", "subscription_id", "expires_at", "used_at", "created_at",
		}).AddRow(
			token, subscriptionID, time.Now().Add(time.Hour), nil, time.Now(),
		)
		mock.ExpectQuery(`SELECT .* FROM unsubscribe_token WHERE`).WithArgs(token).WillReturnRows(selectRows)

		updateRows := pgxmock.NewRows([]string{
			"token", "subscription_id", "expires_at", "used_at", "created_at",
		}).AddRow(
			token, subscriptionID, time.Now().Add(time.Hour), &time.Time{}, time.Now(),
		)
		mock.ExpectQuery(`UPDATE unsubscribe_token SET`).WillReturnRows(updateRows)

		got, err := scope.ConsumeUnsubscribeToken(ctx, token, time.Now())

		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(subscriptionID))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})
})
