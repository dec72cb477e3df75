package subscriber

import (
	"database/sql"
	"time"

	"review_reminder/internal/domain/notification"

	"github.com/google/uuid"
)

// Subscriber is a customer who left an email to be reminded about reviews.
type Subscriber struct {
	ID                       uuid.UUID
	Email                    string // stored lower-cased, unique
	Name                     sql.NullString
	PreferredLanguage        string
	NotificationIntervalDays float64
	PreferredTimeSlot        notification.TimeSlot
	IsActive                 bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
