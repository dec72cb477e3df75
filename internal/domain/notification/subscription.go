// internal/domain/notification/subscription.go
package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Subscription is the subscriber/company join row.
// Corresponds to the 'subscriber_company_subscriptions' table.
type Subscription struct {
	SubscriberID       uuid.UUID
	CompanyID          uuid.UUID
	SubscribedAt       time.Time
	LastNotifiedAt     sql.NullTime
	NextNotificationAt sql.NullTime
	ReviewCompletedAt  sql.NullTime
}

// IsDue reports whether the subscription should receive a reminder at now.
func (s *Subscription) IsDue(now time.Time) bool {
	if s.ReviewCompletedAt.Valid || !s.NextNotificationAt.Valid {
		return false
	}
	return !s.NextNotificationAt.Time.After(now)
}

// DueSubscription is a due subscription joined with what the sweep needs from
// the subscriber and the company.
type DueSubscription struct {
	Subscription

	SubscriberEmail   string
	SubscriberName    sql.NullString
	PreferredLanguage string
	IntervalDays      float64
	PreferredTimeSlot TimeSlot
	CompanyName       string
	CompanySlug       string
}

// LogEntry is an append-only record of a send attempt.
// Corresponds to the 'notification_logs' table.
type LogEntry struct {
	ID             int64
	SubscriberID   uuid.UUID
	CompanyID      uuid.UUID
	EmailType      EmailType
	SubjectOrError string
	Success        bool
	DeliveryID     sql.NullString
	SentAt         time.Time
}
