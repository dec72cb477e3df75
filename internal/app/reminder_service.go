// internal/app/reminder_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"review_reminder/internal/domain/email"
	"review_reminder/internal/domain/notification"
	idb "review_reminder/internal/infra/database"
	"review_reminder/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// NotificationScheduler computes when a subscriber should be reminded next.
type NotificationScheduler interface {
	NextNotificationAt(intervalDays float64, slot notification.TimeSlot, now time.Time) (time.Time, error)
}

// Renderer renders one reminder email.
type Renderer interface {
	Render(d *notification.DueSubscription) (email.Message, error)
}

// SweepStatus is the per-subscription outcome of a sweep.
type SweepStatus string

const (
	SweepStatusSent    SweepStatus = "sent"
	SweepStatusFailed  SweepStatus = "failed"
	SweepStatusSkipped SweepStatus = "skipped"
)

// SubscriberResult describes what happened to one due subscription.
type SubscriberResult struct {
	SubscriberID       uuid.UUID   `json:"subscriberId"`
	CompanyID          uuid.UUID   `json:"companyId"`
	Email              string      `json:"email"`
	Status             SweepStatus `json:"status"`
	DeliveryID         string      `json:"deliveryId,omitempty"`
	Error              string      `json:"error,omitempty"`
	NextNotificationAt *time.Time  `json:"nextNotificationAt,omitempty"`
}

// SweepResult aggregates one run of ProcessDueNotifications.
type SweepResult struct {
	SentCount    int                `json:"sentCount"`
	FailedCount  int                `json:"failedCount"`
	SkippedCount int                `json:"skippedCount"`
	Results      []SubscriberResult `json:"perSubscriberResults"`
}

// ReminderConfig selects the sweep behaviour.
type ReminderConfig struct {
	Mode notification.SweepMode
	// Concurrency is the number of subscriptions processed in parallel; 1 is sequential.
	Concurrency int
}

// ReminderService sends reminders for every due subscription.
type ReminderService struct {
	notifRepo notification.Repository
	transport email.Transport
	scheduler NotificationScheduler
	renderer  Renderer
	cfg       ReminderConfig
	logger    *logrus.Entry
	now       func() time.Time
	running   atomic.Bool
}

func NewReminderService(
	nr notification.Repository,
	transport email.Transport,
	scheduler NotificationScheduler,
	renderer Renderer,
	cfg ReminderConfig,
	logger *logrus.Entry,
) *ReminderService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if !cfg.Mode.Valid() {
		cfg.Mode = notification.SweepModeRecurring
	}
	return &ReminderService{
		notifRepo: nr,
		transport: transport,
		scheduler: scheduler,
		renderer:  renderer,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessDueNotifications runs one sweep. Per-subscription failures are
// reported in the result; only a failure to fetch the due list is returned as
// an error. A sweep started while another is running gets ErrSweepInProgress.
//
// Cancelling ctx stops the sweep from starting further subscriptions; those are
// reported as skipped. A subscription already started always finishes its
// send, log and schedule writes.
func (s *ReminderService) ProcessDueNotifications(ctx context.Context) (*SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.running.Store(false)

	started := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(started).Seconds()) }()

	now := s.now()
	s.logger.WithFields(logrus.Fields{"due_at": now, "mode": s.cfg.Mode}).Info("Starting due notification sweep")

	due, err := s.notifRepo.ListDueSubscriptions(ctx, now)
	if err != nil {
		metrics.SweepErrors.Inc()
		s.logger.WithError(err).Error("Failed to list due subscriptions")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	results := make([]SubscriberResult, len(due))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for i, d := range due {
		g.Go(func() error {
			results[i] = s.processOne(ctx, d, now)
			return nil
		})
	}
	_ = g.Wait()

	res := &SweepResult{Results: results}
	for _, r := range results {
		switch r.Status {
		case SweepStatusSent:
			res.SentCount++
			metrics.RemindersProcessed.WithLabelValues(metrics.OutcomeSent).Inc()
		case SweepStatusFailed:
			res.FailedCount++
			metrics.RemindersProcessed.WithLabelValues(metrics.OutcomeFailed).Inc()
		case SweepStatusSkipped:
			res.SkippedCount++
			metrics.RemindersProcessed.WithLabelValues(metrics.OutcomeSkipped).Inc()
		}
	}

	s.logger.WithFields(logrus.Fields{
		"due":     len(due),
		"sent":    res.SentCount,
		"failed":  res.FailedCount,
		"skipped": res.SkippedCount,
	}).Info("Due notification sweep finished")
	return res, nil
}

// processOne keeps the per-subscription order: send, then log, then update the schedule.
func (s *ReminderService) processOne(sweepCtx context.Context, d *notification.DueSubscription, dueAt time.Time) SubscriberResult {
	result := SubscriberResult{
		SubscriberID: d.SubscriberID,
		CompanyID:    d.CompanyID,
		Email:        d.SubscriberEmail,
	}
	log := s.logger.WithFields(logrus.Fields{
		"subscriber_id": d.SubscriberID,
		"company_id":    d.CompanyID,
	})

	if err := sweepCtx.Err(); err != nil {
		log.WithError(err).Warn("Sweep cancelled before this subscription. Skipping.")
		result.Status = SweepStatusSkipped
		result.Error = "sweep cancelled before processing: " + err.Error()
		return result
	}
	// Once started, the sequence runs to the end so a sent email is always logged and rescheduled.
	ctx := context.WithoutCancel(sweepCtx)

	current, err := s.notifRepo.GetSubscription(ctx, d.SubscriberID, d.CompanyID)
	switch {
	case errors.Is(err, idb.ErrSubscriptionNotFound):
		log.Info("Subscription vanished before sending. Skipping.")
		result.Status = SweepStatusSkipped
		result.Error = "subscription no longer exists"
		return result
	case err != nil:
		return s.fail(ctx, log, d, result, fmt.Errorf("re-read subscription: %w", err))
	case !current.IsDue(dueAt):
		log.Info("Subscription completed or rescheduled before sending. Skipping.")
		result.Status = SweepStatusSkipped
		result.Error = "subscription is no longer due"
		return result
	}

	msg, err := s.renderer.Render(d)
	if err != nil {
		return s.fail(ctx, log, d, result, err)
	}

	deliveryID, err := s.transport.Send(ctx, msg)
	if err != nil {
		return s.fail(ctx, log, d, result, err)
	}
	sentAt := s.now()
	result.Status = SweepStatusSent
	result.DeliveryID = deliveryID
	log.WithField("delivery_id", deliveryID).Info("Reminder sent")

	s.appendLog(ctx, log, &notification.LogEntry{
		SubscriberID:   d.SubscriberID,
		CompanyID:      d.CompanyID,
		EmailType:      notification.EmailTypeReviewReminder,
		SubjectOrError: msg.Subject,
		Success:        true,
		DeliveryID:     nullString(deliveryID),
		SentAt:         sentAt,
	})

	var next *time.Time
	if s.cfg.Mode == notification.SweepModeRecurring {
		at, err := s.scheduler.NextNotificationAt(d.IntervalDays, d.PreferredTimeSlot, sentAt)
		if err != nil {
			// An invalid stored interval stops automatic reminders instead of resending every sweep.
			log.WithError(err).Warn("Could not compute next notification; clearing schedule")
			result.Error = err.Error()
		} else {
			next = &at
		}
	}

	err = s.notifRepo.RecordNotification(ctx, d.SubscriberID, d.CompanyID, sentAt, next, dueAt)
	switch {
	case errors.Is(err, idb.ErrSubscriptionNotDue):
		log.Warn("Subscription changed during the sweep; schedule left as found")
	case err != nil:
		log.WithError(err).Error("Failed to update notification schedule")
		result.Error = err.Error()
	default:
		result.NextNotificationAt = next
	}
	return result
}

func (s *ReminderService) fail(ctx context.Context, log *logrus.Entry, d *notification.DueSubscription, result SubscriberResult, cause error) SubscriberResult {
	log.WithError(cause).Error("Failed to send reminder")
	result.Status = SweepStatusFailed
	result.Error = cause.Error()

	s.appendLog(ctx, log, &notification.LogEntry{
		SubscriberID:   d.SubscriberID,
		CompanyID:      d.CompanyID,
		EmailType:      notification.EmailTypeReviewReminder,
		SubjectOrError: cause.Error(),
		Success:        false,
		SentAt:         s.now(),
	})
	return result
}

func (s *ReminderService) appendLog(ctx context.Context, log *logrus.Entry, entry *notification.LogEntry) {
	if err := s.notifRepo.AppendLog(ctx, entry); err != nil {
		log.WithError(err).Error("Failed to append notification log")
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
