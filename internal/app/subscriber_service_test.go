package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"review_reminder/internal/domain/notification"
	"review_reminder/internal/domain/review"
	"review_reminder/internal/domain/subscriber"
	idb "review_reminder/internal/infra/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingScheduler returns now plus the interval in days and remembers its inputs.
type recordingScheduler struct {
	intervals []float64
	slots     []notification.TimeSlot
}

func (s *recordingScheduler) NextNotificationAt(intervalDays float64, slot notification.TimeSlot, now time.Time) (time.Time, error) {
	if intervalDays < 0 {
		return time.Time{}, notification.ErrInvalidArgument
	}
	s.intervals = append(s.intervals, intervalDays)
	s.slots = append(s.slots, slot)
	return now.Add(time.Duration(intervalDays*24) * time.Hour), nil
}

type subscriberFixture struct {
	svc       *SubscriberService
	subs      *fakeSubscriberRepo
	notifs    *fakeNotificationRepo
	scheduler *recordingScheduler
	sonne     *review.Company
	mond      *review.Company
}

func newSubscriberFixture(existing ...*subscriber.Subscriber) *subscriberFixture {
	sonne := &review.Company{ID: uuid.New(), Name: "Bäckerei Sonne", Slug: "baeckerei-sonne"}
	mond := &review.Company{ID: uuid.New(), Name: "Café Mond", Slug: "cafe-mond"}
	rr := &fakeReviewRepo{companies: map[string]*review.Company{sonne.Slug: sonne, mond.Slug: mond}}

	f := &subscriberFixture{
		subs:      newFakeSubscriberRepo(existing...),
		notifs:    newFakeNotificationRepo(),
		scheduler: &recordingScheduler{},
		sonne:     sonne,
		mond:      mond,
	}
	f.svc = NewSubscriberService(f.subs, f.notifs, rr, f.scheduler,
		notification.Preferences{IntervalDays: 30, TimeSlot: notification.TimeSlotAny}, testLogger())
	f.svc.now = func() time.Time { return sweepNow }
	return f
}

func TestSubscribe_NewSubscriberWithDefaults(t *testing.T) {
	f := newSubscriberFixture()

	res, err := f.svc.Subscribe(context.Background(), SubscribeInput{
		Email:        "  Kunde@Example.COM ",
		CompanySlugs: []string{"baeckerei-sonne", "cafe-mond"},
	})
	require.NoError(t, err)

	assert.Equal(t, "kunde@example.com", res.Subscriber.Email)
	assert.Equal(t, "de", res.Subscriber.PreferredLanguage)
	assert.Equal(t, 30.0, res.Subscriber.NotificationIntervalDays)
	assert.Equal(t, notification.TimeSlotAny, res.Subscriber.PreferredTimeSlot)
	assert.True(t, res.Subscriber.IsActive)

	require.Len(t, res.Subscriptions, 2)
	for _, s := range res.Subscriptions {
		assert.Equal(t, res.Subscriber.ID, s.SubscriberID)
		require.True(t, s.NextNotificationAt.Valid)
		assert.Equal(t, sweepNow.AddDate(0, 0, 30), s.NextNotificationAt.Time)
	}
	assert.Equal(t, []notification.TimeSlot{notification.TimeSlotAny, notification.TimeSlotAny}, f.scheduler.slots)
}

func TestSubscribe_StatedPreferences(t *testing.T) {
	f := newSubscriberFixture()
	interval, slot := 0.0, "evening"

	res, err := f.svc.Subscribe(context.Background(), SubscribeInput{
		Email:             "a@example.com",
		Name:              "Anna",
		PreferredLanguage: "en",
		IntervalDays:      &interval,
		TimeSlot:          &slot,
		CompanySlugs:      []string{"cafe-mond"},
	})
	require.NoError(t, err)

	assert.Equal(t, sql.NullString{String: "Anna", Valid: true}, res.Subscriber.Name)
	assert.Equal(t, "en", res.Subscriber.PreferredLanguage)
	assert.Equal(t, 0.0, res.Subscriber.NotificationIntervalDays)
	assert.Equal(t, notification.TimeSlotEvening, res.Subscriber.PreferredTimeSlot)
	require.Len(t, res.Subscriptions, 1)
	assert.Equal(t, f.mond.ID, res.Subscriptions[0].CompanyID)
}

func TestSubscribe_ReusesExistingSubscriber(t *testing.T) {
	existing := &subscriber.Subscriber{
		ID:                       uuid.New(),
		Email:                    "a@example.com",
		PreferredLanguage:        "de",
		NotificationIntervalDays: 14,
		PreferredTimeSlot:        notification.TimeSlotMorning,
		IsActive:                 true,
	}
	f := newSubscriberFixture(existing)

	first, err := f.svc.Subscribe(context.Background(), SubscribeInput{Email: "A@example.com", CompanySlugs: []string{"baeckerei-sonne"}})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, first.Subscriber.ID)
	assert.Equal(t, []float64{14}, f.scheduler.intervals)

	again, err := f.svc.Subscribe(context.Background(), SubscribeInput{Email: "a@example.com", CompanySlugs: []string{"baeckerei-sonne", "cafe-mond"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"baeckerei-sonne"}, again.ExistingCompanies)
	require.Len(t, again.Subscriptions, 1)
	assert.Equal(t, f.mond.ID, again.Subscriptions[0].CompanyID)
}

func TestSubscribe_ReactivatesInactiveSubscriber(t *testing.T) {
	existing := &subscriber.Subscriber{ID: uuid.New(), Email: "a@example.com", PreferredLanguage: "de", NotificationIntervalDays: 7}
	f := newSubscriberFixture(existing)

	res, err := f.svc.Subscribe(context.Background(), SubscribeInput{Email: "a@example.com", CompanySlugs: []string{"cafe-mond"}})
	require.NoError(t, err)
	assert.True(t, res.Subscriber.IsActive)
	assert.True(t, f.subs.byID[existing.ID].IsActive)
}

func TestSubscribe_ReactivationReschedulesClearedSubscription(t *testing.T) {
	existing := &subscriber.Subscriber{
		ID:                       uuid.New(),
		Email:                    "a@example.com",
		PreferredLanguage:        "de",
		NotificationIntervalDays: 0,
		PreferredTimeSlot:        notification.TimeSlotAny,
	}
	f := newSubscriberFixture(existing)
	ctx := context.Background()
	// A one-shot sweep left the open subscription without a next reminder.
	require.NoError(t, f.notifs.CreateSubscription(ctx, &notification.Subscription{SubscriberID: existing.ID, CompanyID: f.sonne.ID}))

	interval, slot := 7.0, "morning"
	_, err := f.svc.Subscribe(ctx, SubscribeInput{
		Email:        "a@example.com",
		IntervalDays: &interval,
		TimeSlot:     &slot,
		CompanySlugs: []string{"baeckerei-sonne"},
	})
	require.NoError(t, err)

	stored := f.subs.byID[existing.ID]
	assert.True(t, stored.IsActive)
	assert.Equal(t, 7.0, stored.NotificationIntervalDays)
	next := f.notifs.nextSet[[2]uuid.UUID{existing.ID, f.sonne.ID}]
	require.NotNil(t, next)
	assert.Equal(t, sweepNow.AddDate(0, 0, 7), *next)
	assert.Equal(t, notification.TimeSlotMorning, f.scheduler.slots[0])
}

func TestSubscribe_ChangedPreferencesRescheduleOpenSubscriptions(t *testing.T) {
	existing := &subscriber.Subscriber{
		ID:                       uuid.New(),
		Email:                    "a@example.com",
		PreferredLanguage:        "de",
		NotificationIntervalDays: 30,
		PreferredTimeSlot:        notification.TimeSlotAny,
		IsActive:                 true,
	}
	f := newSubscriberFixture(existing)
	ctx := context.Background()
	require.NoError(t, f.notifs.CreateSubscription(ctx, &notification.Subscription{
		SubscriberID:       existing.ID,
		CompanyID:          f.sonne.ID,
		NextNotificationAt: sql.NullTime{Time: sweepNow.AddDate(0, 0, 30), Valid: true},
	}))

	interval := 2.0
	res, err := f.svc.Subscribe(ctx, SubscribeInput{Email: "a@example.com", IntervalDays: &interval, CompanySlugs: []string{"cafe-mond"}})
	require.NoError(t, err)
	require.Len(t, res.Subscriptions, 1)

	assert.Equal(t, 2.0, f.subs.byID[existing.ID].NotificationIntervalDays)
	next := f.notifs.nextSet[[2]uuid.UUID{existing.ID, f.sonne.ID}]
	require.NotNil(t, next)
	assert.Equal(t, sweepNow.AddDate(0, 0, 2), *next)
	assert.Equal(t, sweepNow.AddDate(0, 0, 2), res.Subscriptions[0].NextNotificationAt.Time)
}

func TestSubscribe_UnchangedSignupOnlySchedulesUnscheduled(t *testing.T) {
	existing := &subscriber.Subscriber{
		ID:                       uuid.New(),
		Email:                    "a@example.com",
		PreferredLanguage:        "de",
		NotificationIntervalDays: 14,
		PreferredTimeSlot:        notification.TimeSlotMorning,
		IsActive:                 true,
	}
	f := newSubscriberFixture(existing)
	ctx := context.Background()
	require.NoError(t, f.notifs.CreateSubscription(ctx, &notification.Subscription{
		SubscriberID:       existing.ID,
		CompanyID:          f.sonne.ID,
		NextNotificationAt: sql.NullTime{Time: sweepNow.AddDate(0, 0, 3), Valid: true},
	}))
	require.NoError(t, f.notifs.CreateSubscription(ctx, &notification.Subscription{SubscriberID: existing.ID, CompanyID: f.mond.ID}))

	res, err := f.svc.Subscribe(ctx, SubscribeInput{Email: "a@example.com", CompanySlugs: []string{"baeckerei-sonne", "cafe-mond"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"baeckerei-sonne", "cafe-mond"}, res.ExistingCompanies)

	require.Len(t, f.notifs.nextSet, 1)
	next := f.notifs.nextSet[[2]uuid.UUID{existing.ID, f.mond.ID}]
	require.NotNil(t, next)
	assert.Equal(t, sweepNow.AddDate(0, 0, 14), *next)
}

func TestSubscribe_InvalidInput(t *testing.T) {
	negative, badSlot := -1.0, "night"
	tests := []struct {
		name string
		in   SubscribeInput
	}{
		{name: "missing email", in: SubscribeInput{CompanySlugs: []string{"cafe-mond"}}},
		{name: "malformed email", in: SubscribeInput{Email: "not-an-address", CompanySlugs: []string{"cafe-mond"}}},
		{name: "negative interval", in: SubscribeInput{Email: "a@example.com", IntervalDays: &negative, CompanySlugs: []string{"cafe-mond"}}},
		{name: "unknown slot", in: SubscribeInput{Email: "a@example.com", TimeSlot: &badSlot, CompanySlugs: []string{"cafe-mond"}}},
		{name: "no company", in: SubscribeInput{Email: "a@example.com"}},
		{name: "unsupported language", in: SubscribeInput{Email: "a@example.com", PreferredLanguage: "fr", CompanySlugs: []string{"cafe-mond"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubscriberFixture()
			_, err := f.svc.Subscribe(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidSubscriberInput)
			assert.Empty(t, f.subs.byID)
		})
	}
}

func TestSubscribe_UnknownCompany(t *testing.T) {
	f := newSubscriberFixture()

	_, err := f.svc.Subscribe(context.Background(), SubscribeInput{Email: "a@example.com", CompanySlugs: []string{"nope"}})
	assert.ErrorIs(t, err, idb.ErrCompanyNotFound)
	assert.Empty(t, f.subs.byID)
}

func TestUpdatePreferences_ReschedulesOpenSubscriptions(t *testing.T) {
	sub := &subscriber.Subscriber{ID: uuid.New(), Email: "a@example.com", NotificationIntervalDays: 30, PreferredTimeSlot: notification.TimeSlotAny, IsActive: true}
	f := newSubscriberFixture(sub)
	ctx := context.Background()
	for _, c := range []*review.Company{f.sonne, f.mond} {
		require.NoError(t, f.notifs.CreateSubscription(ctx, &notification.Subscription{SubscriberID: sub.ID, CompanyID: c.ID}))
	}
	require.NoError(t, f.notifs.MarkReviewCompleted(ctx, sub.ID, f.mond.ID, sweepNow))

	got, err := f.svc.UpdatePreferences(ctx, sub.ID, PreferencesInput{IntervalDays: 3, TimeSlot: "morning"})
	require.NoError(t, err)

	assert.Equal(t, 3.0, got.NotificationIntervalDays)
	assert.Equal(t, notification.TimeSlotMorning, f.subs.byID[sub.ID].PreferredTimeSlot)
	require.Len(t, f.notifs.nextSet, 1)
	next := f.notifs.nextSet[[2]uuid.UUID{sub.ID, f.sonne.ID}]
	require.NotNil(t, next)
	assert.Equal(t, sweepNow.AddDate(0, 0, 3), *next)
}

func TestUpdatePreferences_Errors(t *testing.T) {
	f := newSubscriberFixture()

	_, err := f.svc.UpdatePreferences(context.Background(), uuid.New(), PreferencesInput{IntervalDays: -2, TimeSlot: "any"})
	assert.ErrorIs(t, err, ErrInvalidSubscriberInput)

	_, err = f.svc.UpdatePreferences(context.Background(), uuid.New(), PreferencesInput{IntervalDays: 2, TimeSlot: "any"})
	assert.ErrorIs(t, err, idb.ErrSubscriberNotFound)
}

func TestDeactivate(t *testing.T) {
	sub := &subscriber.Subscriber{ID: uuid.New(), Email: "a@example.com", IsActive: true}
	f := newSubscriberFixture(sub)

	require.NoError(t, f.svc.Deactivate(context.Background(), "A@Example.com"))
	assert.False(t, f.subs.byID[sub.ID].IsActive)

	assert.ErrorIs(t, f.svc.Deactivate(context.Background(), "a@example.com"), ErrSubscriberAlreadyInactive)
	assert.ErrorIs(t, f.svc.Deactivate(context.Background(), "b@example.com"), idb.ErrSubscriberNotFound)
}

func TestMarkReviewCompleted(t *testing.T) {
	f := newSubscriberFixture()
	subID := uuid.New()
	ctx := context.Background()
	require.NoError(t, f.notifs.CreateSubscription(ctx, &notification.Subscription{
		SubscriberID:       subID,
		CompanyID:          f.sonne.ID,
		NextNotificationAt: sql.NullTime{Time: sweepNow.Add(time.Hour), Valid: true},
	}))

	company, err := f.svc.MarkReviewCompleted(ctx, subID, f.sonne.ID)
	require.NoError(t, err)
	assert.Equal(t, f.sonne, company)
	s := f.notifs.subscriptions[[2]uuid.UUID{subID, f.sonne.ID}]
	assert.True(t, s.ReviewCompletedAt.Valid)
	assert.False(t, s.NextNotificationAt.Valid)

	_, err = f.svc.MarkReviewCompleted(ctx, uuid.New(), f.sonne.ID)
	assert.ErrorIs(t, err, idb.ErrSubscriptionNotFound)
}

func TestMarkReviewCompleted_UnknownCompany(t *testing.T) {
	f := newSubscriberFixture()
	subID := uuid.New()
	require.NoError(t, f.notifs.CreateSubscription(context.Background(), &notification.Subscription{SubscriberID: subID, CompanyID: f.sonne.ID}))

	_, err := f.svc.MarkReviewCompleted(context.Background(), subID, uuid.New())
	assert.ErrorIs(t, err, idb.ErrCompanyNotFound)
	assert.False(t, f.notifs.subscriptions[[2]uuid.UUID{subID, f.sonne.ID}].ReviewCompletedAt.Valid)
}
