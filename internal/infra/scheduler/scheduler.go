package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"review_reminder/internal/app"
	"review_reminder/internal/domain/telegram"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper runs one due-notification sweep.
type Sweeper interface {
	ProcessDueNotifications(ctx context.Context) (*app.SweepResult, error)
}

// OperatorNotifier receives a summary after sweeps with failures.
type OperatorNotifier struct {
	Client telegram.Client
	ChatID int64
}

type ReminderScheduler struct {
	cronEngine   *cron.Cron
	sweeper      Sweeper
	operator     *OperatorNotifier
	logger       *logrus.Entry
	cronSpec     string
	sweepTimeout time.Duration
}

// NewReminderScheduler builds the cron trigger. operator may be nil.
func NewReminderScheduler(
	sweeper Sweeper,
	operator *OperatorNotifier,
	logger *logrus.Entry,
	cronSpec string, // e.g., "*/15 * * * *" (every 15 minutes)
	sweepTimeout time.Duration,
	loc *time.Location,
) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderScheduler{
		cronEngine:   cron.New(cron.WithLocation(loc)),
		sweeper:      sweeper,
		operator:     operator,
		logger:       logger,
		cronSpec:     cronSpec,
		sweepTimeout: sweepTimeout,
	}
}

func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for due notification sweep.")
		s.executeSweep()
	})
	if err != nil {
		return fmt.Errorf("could not add due notification cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Reminder scheduler started.")
	return nil
}

func (s *ReminderScheduler) executeSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.sweepTimeout)
	defer cancel()

	res, err := s.sweeper.ProcessDueNotifications(ctx)
	if errors.Is(err, app.ErrSweepInProgress) {
		s.logger.Warn("Previous sweep still running. Skipping this tick.")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Error during due notification sweep")
		s.notifyOperator(fmt.Sprintf("Reminder sweep failed: %v", err))
		return
	}

	if res.FailedCount > 0 {
		s.notifyOperator(fmt.Sprintf("Reminder sweep finished with failures.\nSent: %d\nFailed: %d\nSkipped: %d",
			res.SentCount, res.FailedCount, res.SkippedCount))
	}
}

func (s *ReminderScheduler) notifyOperator(text string) {
	if s.operator == nil || s.operator.Client == nil {
		return
	}
	if err := s.operator.Client.SendMessage(s.operator.ChatID, text, nil); err != nil {
		s.logger.WithError(err).Error("Failed to send sweep summary to operator")
	}
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
