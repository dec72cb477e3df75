// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"review_reminder/internal/domain/notification"

	"github.com/google/uuid"
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// --- Subscription Methods ---

const subscriptionColumns = `subscriber_id, company_id, subscribed_at, last_notified_at, next_notification_at, review_completed_at`

func (r *PostgresNotificationRepository) ListDueSubscriptions(ctx context.Context, dueAt time.Time) ([]*notification.DueSubscription, error) {
	query := `SELECT s.subscriber_id, s.company_id, s.subscribed_at, s.last_notified_at, s.next_notification_at, s.review_completed_at,
                      sub.email, sub.name, sub.preferred_language, sub.notification_interval_days, sub.preferred_time_slot,
                      c.name, c.slug
               FROM subscriber_company_subscriptions s
               JOIN subscribers sub ON sub.id = s.subscriber_id
               JOIN companies c ON c.id = s.company_id
               WHERE s.next_notification_at <= $1
                 AND s.review_completed_at IS NULL
                 AND sub.is_active = TRUE
               ORDER BY s.next_notification_at ASC` // Oldest first
	rows, err := r.db.QueryContext(ctx, query, dueAt)
	if err != nil {
		return nil, fmt.Errorf("error querying due subscriptions: %w", err)
	}
	defer rows.Close()

	due := make([]*notification.DueSubscription, 0)
	for rows.Next() {
		d := &notification.DueSubscription{}
		if err := rows.Scan(
			&d.SubscriberID, &d.CompanyID, &d.SubscribedAt, &d.LastNotifiedAt, &d.NextNotificationAt, &d.ReviewCompletedAt,
			&d.SubscriberEmail, &d.SubscriberName, &d.PreferredLanguage, &d.IntervalDays, &d.PreferredTimeSlot,
			&d.CompanyName, &d.CompanySlug,
		); err != nil {
			return nil, fmt.Errorf("error scanning due subscription row: %w", err)
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due subscription rows: %w", err)
	}
	return due, nil
}

func (r *PostgresNotificationRepository) GetSubscription(ctx context.Context, subscriberID, companyID uuid.UUID) (*notification.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
               FROM subscriber_company_subscriptions
               WHERE subscriber_id = $1 AND company_id = $2`
	s := notification.Subscription{}
	err := r.db.QueryRowContext(ctx, query, subscriberID, companyID).Scan(
		&s.SubscriberID, &s.CompanyID, &s.SubscribedAt, &s.LastNotifiedAt, &s.NextNotificationAt, &s.ReviewCompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("error getting subscription: %w", err)
	}
	return &s, nil
}

func (r *PostgresNotificationRepository) ListOpenSubscriptionsBySubscriber(ctx context.Context, subscriberID uuid.UUID) ([]*notification.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
               FROM subscriber_company_subscriptions
               WHERE subscriber_id = $1 AND review_completed_at IS NULL
               ORDER BY subscribed_at`
	rows, err := r.db.QueryContext(ctx, query, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("error querying open subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*notification.Subscription, 0)
	for rows.Next() {
		s := notification.Subscription{}
		if err := rows.Scan(
			&s.SubscriberID, &s.CompanyID, &s.SubscribedAt, &s.LastNotifiedAt, &s.NextNotificationAt, &s.ReviewCompletedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning subscription row: %w", err)
		}
		subs = append(subs, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}

func (r *PostgresNotificationRepository) CreateSubscription(ctx context.Context, s *notification.Subscription) error {
	query := `INSERT INTO subscriber_company_subscriptions (subscriber_id, company_id, next_notification_at)
               VALUES ($1, $2, $3)
               RETURNING subscribed_at`
	err := r.db.QueryRowContext(ctx, query, s.SubscriberID, s.CompanyID, s.NextNotificationAt).Scan(&s.SubscribedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSubscription
		}
		return fmt.Errorf("error creating subscription: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) RecordNotification(ctx context.Context, subscriberID, companyID uuid.UUID, notifiedAt time.Time, next *time.Time, dueAt time.Time) error {
	query := `UPDATE subscriber_company_subscriptions
               SET last_notified_at = $3, next_notification_at = $4
               WHERE subscriber_id = $1 AND company_id = $2
                 AND review_completed_at IS NULL
                 AND next_notification_at <= $5`
	res, err := r.db.ExecContext(ctx, query, subscriberID, companyID, notifiedAt, nullTime(next), dueAt)
	if err != nil {
		return fmt.Errorf("error recording notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrSubscriptionNotDue
	}
	return nil
}

func (r *PostgresNotificationRepository) SetNextNotification(ctx context.Context, subscriberID, companyID uuid.UUID, next *time.Time) error {
	query := `UPDATE subscriber_company_subscriptions
               SET next_notification_at = $3
               WHERE subscriber_id = $1 AND company_id = $2 AND review_completed_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, subscriberID, companyID, nullTime(next))
	if err != nil {
		return fmt.Errorf("error setting next notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// MarkReviewCompleted keeps the first completion time and always clears the schedule.
func (r *PostgresNotificationRepository) MarkReviewCompleted(ctx context.Context, subscriberID, companyID uuid.UUID, completedAt time.Time) error {
	query := `UPDATE subscriber_company_subscriptions
               SET review_completed_at = COALESCE(review_completed_at, $3), next_notification_at = NULL
               WHERE subscriber_id = $1 AND company_id = $2`
	res, err := r.db.ExecContext(ctx, query, subscriberID, companyID, completedAt)
	if err != nil {
		return fmt.Errorf("error marking review completed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// --- Notification Log Methods ---

func (r *PostgresNotificationRepository) AppendLog(ctx context.Context, entry *notification.LogEntry) error {
	query := `INSERT INTO notification_logs (subscriber_id, company_id, email_type, subject_or_error, success, delivery_id, sent_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query, entry.SubscriberID, entry.CompanyID, entry.EmailType,
		entry.SubjectOrError, entry.Success, entry.DeliveryID, entry.SentAt).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("error appending notification log: %w", err)
	}
	return nil
}
