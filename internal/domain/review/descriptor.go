package review

import (
	"time"

	"github.com/google/uuid"
)

// Descriptor is a short phrase describing one aspect of a customer's experience.
type Descriptor struct {
	ID         int64
	CategoryID int64
	Text       string
	SortOrder  int
}

// Category groups descriptors for presentation.
type Category struct {
	ID          int64
	Name        string
	SortOrder   int
	Descriptors []Descriptor
}

// Company is the business a review is written for.
type Company struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

// GeneratedReview is the persisted final text of one composition.
// The selection that produced it is never stored.
type GeneratedReview struct {
	ID           int64
	CompanyID    uuid.UUID
	SubscriberID uuid.NullUUID
	Text         string
	CreatedAt    time.Time
}
