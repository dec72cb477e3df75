package subscriber

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving Subscriber entities.
type Repository interface {
	Create(ctx context.Context, s *Subscriber) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subscriber, error)
	GetByEmail(ctx context.Context, email string) (*Subscriber, error) // case-insensitive
	Update(ctx context.Context, s *Subscriber) error                   // name, language, interval, slot, is_active
}
