// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations used by the reminder sweep and
// the subscriber lifecycle.
type Repository interface {
	// ListDueSubscriptions returns open subscriptions of active subscribers whose
	// next_notification_at is at or before dueAt, oldest first.
	ListDueSubscriptions(ctx context.Context, dueAt time.Time) ([]*DueSubscription, error)
	GetSubscription(ctx context.Context, subscriberID, companyID uuid.UUID) (*Subscription, error)
	ListOpenSubscriptionsBySubscriber(ctx context.Context, subscriberID uuid.UUID) ([]*Subscription, error)
	CreateSubscription(ctx context.Context, s *Subscription) error

	// RecordNotification stores lastNotifiedAt/nextNotificationAt, but only while the
	// subscription is still due at dueAt and not completed. A stale row yields ErrSubscriptionNotDue.
	RecordNotification(ctx context.Context, subscriberID, companyID uuid.UUID, notifiedAt time.Time, next *time.Time, dueAt time.Time) error
	SetNextNotification(ctx context.Context, subscriberID, companyID uuid.UUID, next *time.Time) error
	MarkReviewCompleted(ctx context.Context, subscriberID, companyID uuid.UUID, completedAt time.Time) error

	AppendLog(ctx context.Context, entry *LogEntry) error
}
