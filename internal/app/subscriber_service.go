// internal/app/subscriber_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"review_reminder/internal/domain/notification"
	"review_reminder/internal/domain/review"
	"review_reminder/internal/domain/subscriber"
	idb "review_reminder/internal/infra/database"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubscribeInput is a signup. Nil preferences fall back to the configured defaults.
type SubscribeInput struct {
	Email             string   `json:"email" validate:"required,email,max=254"`
	Name              string   `json:"name" validate:"max=120"`
	PreferredLanguage string   `json:"preferredLanguage" validate:"omitempty,oneof=de en"`
	IntervalDays      *float64 `json:"intervalDays" validate:"omitempty,gte=0,lte=365"`
	TimeSlot          *string  `json:"timeSlot" validate:"omitempty,oneof=morning afternoon evening any"`
	CompanySlugs      []string `json:"companySlugs" validate:"required,min=1,dive,required"`
}

// PreferencesInput changes how often and when a subscriber is reminded.
type PreferencesInput struct {
	IntervalDays float64 `json:"intervalDays" validate:"gte=0,lte=365"`
	TimeSlot     string  `json:"timeSlot" validate:"required,oneof=morning afternoon evening any"`
}

// SubscribeResult reports the subscriber and the subscriptions created for it.
type SubscribeResult struct {
	Subscriber    *subscriber.Subscriber
	Subscriptions []*notification.Subscription
	// ExistingCompanies lists slugs the subscriber was already subscribed to.
	ExistingCompanies []string
}

// SubscriberService manages the subscriber lifecycle.
type SubscriberService struct {
	subscriberRepo subscriber.Repository
	notifRepo      notification.Repository
	reviewRepo     review.Repository
	scheduler      NotificationScheduler
	defaults       notification.Preferences
	validate       *validator.Validate
	logger         *logrus.Entry
	now            func() time.Time
}

func NewSubscriberService(
	sr subscriber.Repository,
	nr notification.Repository,
	rr review.Repository,
	scheduler NotificationScheduler,
	defaults notification.Preferences,
	logger *logrus.Entry,
) *SubscriberService {
	return &SubscriberService{
		subscriberRepo: sr,
		notifRepo:      nr,
		reviewRepo:     rr,
		scheduler:      scheduler,
		defaults:       defaults,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		logger:         logger,
		now:            time.Now,
	}
}

// Subscribe creates the subscriber, or reuses the one with the same email, and
// schedules a first reminder for every company in the input. A known address
// gets its open subscriptions rescheduled before new ones are added.
func (s *SubscriberService) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubscriberInput, err)
	}

	companies := make([]*review.Company, 0, len(in.CompanySlugs))
	for _, slug := range in.CompanySlugs {
		c, err := s.reviewRepo.GetCompanyBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}

	now := s.now()
	sub, err := s.subscriberRepo.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, idb.ErrSubscriberNotFound):
		sub = s.newSubscriber(in)
		if err := s.subscriberRepo.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}
		s.logger.WithField("subscriber_id", sub.ID).Info("New subscriber created")
	case err != nil:
		return nil, err
	default:
		if err := s.resubscribe(ctx, sub, in, now); err != nil {
			return nil, err
		}
	}

	res := &SubscribeResult{Subscriber: sub}
	for _, c := range companies {
		next, err := s.scheduler.NextNotificationAt(sub.NotificationIntervalDays, sub.PreferredTimeSlot, now)
		if err != nil {
			return nil, err
		}
		subscription := &notification.Subscription{
			SubscriberID:       sub.ID,
			CompanyID:          c.ID,
			SubscribedAt:       now,
			NextNotificationAt: sql.NullTime{Time: next, Valid: true},
		}
		err = s.notifRepo.CreateSubscription(ctx, subscription)
		if errors.Is(err, idb.ErrDuplicateSubscription) {
			res.ExistingCompanies = append(res.ExistingCompanies, c.Slug)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create subscription for %s: %w", c.Slug, err)
		}
		res.Subscriptions = append(res.Subscriptions, subscription)
		s.logger.WithFields(logrus.Fields{
			"subscriber_id":        sub.ID,
			"company_id":           c.ID,
			"next_notification_at": next,
		}).Info("Subscription created")
	}
	return res, nil
}

func (s *SubscriberService) newSubscriber(in SubscribeInput) *subscriber.Subscriber {
	sub := &subscriber.Subscriber{
		Email:                    in.Email,
		PreferredLanguage:        defaultLanguage,
		NotificationIntervalDays: s.defaults.IntervalDays,
		PreferredTimeSlot:        s.defaults.TimeSlot,
		IsActive:                 true,
	}
	applySubscribeInput(sub, in)
	return sub
}

func applySubscribeInput(sub *subscriber.Subscriber, in SubscribeInput) {
	if name := strings.TrimSpace(in.Name); name != "" {
		sub.Name = sql.NullString{String: name, Valid: true}
	}
	if in.PreferredLanguage != "" {
		sub.PreferredLanguage = in.PreferredLanguage
	}
	if in.IntervalDays != nil {
		sub.NotificationIntervalDays = *in.IntervalDays
	}
	if in.TimeSlot != nil {
		sub.PreferredTimeSlot = notification.TimeSlot(*in.TimeSlot)
	}
}

// resubscribe handles a signup for a known address. Reactivation or changed
// preferences reschedule every open subscription; otherwise only open
// subscriptions without a schedule get one.
func (s *SubscriberService) resubscribe(ctx context.Context, sub *subscriber.Subscriber, in SubscribeInput, now time.Time) error {
	before := *sub
	applySubscribeInput(sub, in)
	reactivated := !sub.IsActive
	sub.IsActive = true
	changed := reactivated || *sub != before

	if changed {
		if err := s.subscriberRepo.Update(ctx, sub); err != nil {
			return fmt.Errorf("update subscriber on signup: %w", err)
		}
	}
	n, err := s.rescheduleOpen(ctx, sub, now, !changed)
	if err != nil {
		return err
	}

	log := s.logger.WithFields(logrus.Fields{"subscriber_id": sub.ID, "rescheduled": n})
	switch {
	case reactivated:
		log.Info("Subscriber reactivated")
	case changed:
		log.Info("Subscriber preferences changed on signup")
	case n > 0:
		log.Info("Unscheduled subscriptions scheduled on signup")
	}
	return nil
}

// rescheduleOpen sets a fresh next reminder on the subscriber's open subscriptions.
// With onlyUnscheduled it leaves subscriptions that already have one alone.
func (s *SubscriberService) rescheduleOpen(ctx context.Context, sub *subscriber.Subscriber, now time.Time, onlyUnscheduled bool) (int, error) {
	open, err := s.notifRepo.ListOpenSubscriptionsBySubscriber(ctx, sub.ID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, subscription := range open {
		if onlyUnscheduled && subscription.NextNotificationAt.Valid {
			continue
		}
		next, err := s.scheduler.NextNotificationAt(sub.NotificationIntervalDays, sub.PreferredTimeSlot, now)
		if err != nil {
			return n, err
		}
		if err := s.notifRepo.SetNextNotification(ctx, sub.ID, subscription.CompanyID, &next); err != nil {
			return n, fmt.Errorf("reschedule subscription: %w", err)
		}
		n++
	}
	return n, nil
}

// UpdatePreferences stores the new interval and slot and reschedules every open
// subscription of the subscriber from now.
func (s *SubscriberService) UpdatePreferences(ctx context.Context, subscriberID uuid.UUID, in PreferencesInput) (*subscriber.Subscriber, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubscriberInput, err)
	}

	sub, err := s.subscriberRepo.GetByID(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	sub.NotificationIntervalDays = in.IntervalDays
	sub.PreferredTimeSlot = notification.TimeSlot(in.TimeSlot)
	if err := s.subscriberRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("update subscriber preferences: %w", err)
	}

	n, err := s.rescheduleOpen(ctx, sub, s.now(), false)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"subscriber_id": subscriberID,
		"interval_days": sub.NotificationIntervalDays,
		"time_slot":     sub.PreferredTimeSlot,
		"rescheduled":   n,
	}).Info("Subscriber preferences updated")
	return sub, nil
}

// Deactivate stops all reminders for the address. History is kept.
func (s *SubscriberService) Deactivate(ctx context.Context, email string) error {
	sub, err := s.subscriberRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if !sub.IsActive {
		return ErrSubscriberAlreadyInactive
	}
	sub.IsActive = false
	if err := s.subscriberRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("deactivate subscriber: %w", err)
	}
	s.logger.WithField("subscriber_id", sub.ID).Info("Subscriber deactivated")
	return nil
}

// MarkReviewCompleted closes the subscription; no further reminders are scheduled for it.
// It returns the company the review was written for.
func (s *SubscriberService) MarkReviewCompleted(ctx context.Context, subscriberID, companyID uuid.UUID) (*review.Company, error) {
	company, err := s.reviewRepo.GetCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := s.notifRepo.MarkReviewCompleted(ctx, subscriberID, companyID, s.now()); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"subscriber_id": subscriberID,
		"company_id":    companyID,
		"company_slug":  company.Slug,
	}).Info("Review marked completed")
	return company, nil
}
