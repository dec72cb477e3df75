package app

import (
	"context"
	"io"
	"sync"
	"time"

	"review_reminder/internal/domain/email"
	"review_reminder/internal/domain/notification"
	"review_reminder/internal/domain/review"
	"review_reminder/internal/domain/subscriber"
	idb "review_reminder/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type recordedNotification struct {
	SubscriberID uuid.UUID
	CompanyID    uuid.UUID
	NotifiedAt   time.Time
	Next         *time.Time
	DueAt        time.Time
}

// fakeNotificationRepo keeps subscriptions in memory and records writes.
type fakeNotificationRepo struct {
	mu sync.Mutex

	due           []*notification.DueSubscription
	subscriptions map[[2]uuid.UUID]*notification.Subscription
	listErr       error
	getErr        error
	recordErr     error

	logs     []*notification.LogEntry
	recorded []recordedNotification
	nextSet  map[[2]uuid.UUID]*time.Time
	created  []*notification.Subscription
	done     map[[2]uuid.UUID]time.Time
}

func newFakeNotificationRepo(due ...*notification.DueSubscription) *fakeNotificationRepo {
	r := &fakeNotificationRepo{
		due:           due,
		subscriptions: map[[2]uuid.UUID]*notification.Subscription{},
		nextSet:       map[[2]uuid.UUID]*time.Time{},
		done:          map[[2]uuid.UUID]time.Time{},
	}
	for _, d := range due {
		sub := d.Subscription
		r.subscriptions[[2]uuid.UUID{d.SubscriberID, d.CompanyID}] = &sub
	}
	return r
}

func (r *fakeNotificationRepo) ListDueSubscriptions(_ context.Context, _ time.Time) ([]*notification.DueSubscription, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.due, nil
}

func (r *fakeNotificationRepo) GetSubscription(ctx context.Context, subscriberID, companyID uuid.UUID) (*notification.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.subscriptions[[2]uuid.UUID{subscriberID, companyID}]
	if !ok {
		return nil, idb.ErrSubscriptionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeNotificationRepo) ListOpenSubscriptionsBySubscriber(_ context.Context, subscriberID uuid.UUID) ([]*notification.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Subscription
	for k, s := range r.subscriptions {
		if k[0] == subscriberID && !s.ReviewCompletedAt.Valid {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CreateSubscription(_ context.Context, s *notification.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uuid.UUID{s.SubscriberID, s.CompanyID}
	if _, ok := r.subscriptions[key]; ok {
		return idb.ErrDuplicateSubscription
	}
	cp := *s
	r.subscriptions[key] = &cp
	r.created = append(r.created, &cp)
	return nil
}

func (r *fakeNotificationRepo) RecordNotification(ctx context.Context, subscriberID, companyID uuid.UUID, notifiedAt time.Time, next *time.Time, dueAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.recordErr != nil {
		return r.recordErr
	}
	r.recorded = append(r.recorded, recordedNotification{
		SubscriberID: subscriberID,
		CompanyID:    companyID,
		NotifiedAt:   notifiedAt,
		Next:         next,
		DueAt:        dueAt,
	})
	return nil
}

func (r *fakeNotificationRepo) SetNextNotification(_ context.Context, subscriberID, companyID uuid.UUID, next *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uuid.UUID{subscriberID, companyID}
	if _, ok := r.subscriptions[key]; !ok {
		return idb.ErrSubscriptionNotFound
	}
	r.nextSet[key] = next
	return nil
}

func (r *fakeNotificationRepo) MarkReviewCompleted(_ context.Context, subscriberID, companyID uuid.UUID, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uuid.UUID{subscriberID, companyID}
	s, ok := r.subscriptions[key]
	if !ok {
		return idb.ErrSubscriptionNotFound
	}
	s.ReviewCompletedAt.Time, s.ReviewCompletedAt.Valid = completedAt, true
	s.NextNotificationAt.Valid = false
	r.done[key] = completedAt
	return nil
}

func (r *fakeNotificationRepo) AppendLog(ctx context.Context, entry *notification.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	r.logs = append(r.logs, entry)
	return nil
}

// fakeTransport fails for the addresses listed in failFor. onSend runs before
// each delivery.
type fakeTransport struct {
	mu      sync.Mutex
	failFor map[string]error
	sent    []email.Message
	onSend  func(msg email.Message)
}

func (t *fakeTransport) Send(_ context.Context, msg email.Message) (string, error) {
	if t.onSend != nil {
		t.onSend(msg)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.failFor[msg.To]; ok {
		return "", err
	}
	t.sent = append(t.sent, msg)
	return "msg-" + msg.To, nil
}

type scheduleCall struct {
	IntervalDays float64
	Slot         notification.TimeSlot
	Now          time.Time
}

// fakeScheduler returns a fixed instant and records what it was asked.
type fakeScheduler struct {
	at  time.Time
	err error

	mu    sync.Mutex
	calls []scheduleCall
}

func (s *fakeScheduler) NextNotificationAt(intervalDays float64, slot notification.TimeSlot, now time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduleCall{IntervalDays: intervalDays, Slot: slot, Now: now})
	return s.at, s.err
}

type fakeReviewRepo struct {
	categories  []*review.Category
	descriptors map[int64]review.Descriptor
	companies   map[string]*review.Company
	saved       []*review.GeneratedReview
	saveErr     error
}

func (r *fakeReviewRepo) ListCategories(context.Context) ([]*review.Category, error) {
	return r.categories, nil
}

func (r *fakeReviewRepo) GetDescriptorsByIDs(_ context.Context, ids []int64) ([]review.Descriptor, error) {
	out := make([]review.Descriptor, 0, len(ids))
	for _, id := range ids {
		d, ok := r.descriptors[id]
		if !ok {
			return nil, idb.ErrDescriptorNotFound
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeReviewRepo) GetCompanyBySlug(_ context.Context, slug string) (*review.Company, error) {
	c, ok := r.companies[slug]
	if !ok {
		return nil, idb.ErrCompanyNotFound
	}
	return c, nil
}

func (r *fakeReviewRepo) GetCompanyByID(_ context.Context, id uuid.UUID) (*review.Company, error) {
	for _, c := range r.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, idb.ErrCompanyNotFound
}

func (r *fakeReviewRepo) SaveGeneratedReview(_ context.Context, g *review.GeneratedReview) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	g.ID = int64(len(r.saved) + 1)
	r.saved = append(r.saved, g)
	return nil
}

type fakeSubscriberRepo struct {
	byID map[uuid.UUID]*subscriber.Subscriber
}

func newFakeSubscriberRepo(subs ...*subscriber.Subscriber) *fakeSubscriberRepo {
	r := &fakeSubscriberRepo{byID: map[uuid.UUID]*subscriber.Subscriber{}}
	for _, s := range subs {
		r.byID[s.ID] = s
	}
	return r
}

func (r *fakeSubscriberRepo) Create(_ context.Context, s *subscriber.Subscriber) error {
	for _, existing := range r.byID {
		if existing.Email == s.Email {
			return idb.ErrDuplicateEmail
		}
	}
	s.ID = uuid.New()
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *fakeSubscriberRepo) GetByID(_ context.Context, id uuid.UUID) (*subscriber.Subscriber, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, idb.ErrSubscriberNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubscriberRepo) GetByEmail(_ context.Context, email string) (*subscriber.Subscriber, error) {
	for _, s := range r.byID {
		if s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, idb.ErrSubscriberNotFound
}

func (r *fakeSubscriberRepo) Update(_ context.Context, s *subscriber.Subscriber) error {
	if _, ok := r.byID[s.ID]; !ok {
		return idb.ErrSubscriberNotFound
	}
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}
