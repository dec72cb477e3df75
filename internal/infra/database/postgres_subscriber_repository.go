package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"review_reminder/internal/domain/subscriber"

	"github.com/google/uuid"
)

type PostgresSubscriberRepository struct {
	db *sql.DB
}

func NewPostgresSubscriberRepository(db *sql.DB) *PostgresSubscriberRepository {
	return &PostgresSubscriberRepository{db: db}
}

const subscriberColumns = `id, email, name, preferred_language, notification_interval_days, preferred_time_slot, is_active, created_at, updated_at`

func scanSubscriber(row interface{ Scan(...any) error }) (*subscriber.Subscriber, error) {
	s := &subscriber.Subscriber{}
	err := row.Scan(&s.ID, &s.Email, &s.Name, &s.PreferredLanguage, &s.NotificationIntervalDays,
		&s.PreferredTimeSlot, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *PostgresSubscriberRepository) Create(ctx context.Context, s *subscriber.Subscriber) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))

	query := `INSERT INTO subscribers (id, email, name, preferred_language, notification_interval_days, preferred_time_slot, is_active)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, s.ID, s.Email, s.Name, s.PreferredLanguage,
		s.NotificationIntervalDays, s.PreferredTimeSlot, s.IsActive).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("error creating subscriber: %w", err)
	}
	return nil
}

func (r *PostgresSubscriberRepository) GetByID(ctx context.Context, id uuid.UUID) (*subscriber.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE id = $1`
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("error getting subscriber by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSubscriberRepository) GetByEmail(ctx context.Context, email string) (*subscriber.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE lower(email) = lower($1)`
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("error getting subscriber by email: %w", err)
	}
	return s, nil
}

func (r *PostgresSubscriberRepository) Update(ctx context.Context, s *subscriber.Subscriber) error {
	query := `UPDATE subscribers
               SET name = $1, preferred_language = $2, notification_interval_days = $3,
                   preferred_time_slot = $4, is_active = $5, updated_at = NOW()
               WHERE id = $6
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, s.Name, s.PreferredLanguage, s.NotificationIntervalDays,
		s.PreferredTimeSlot, s.IsActive, s.ID).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubscriberNotFound
		}
		return fmt.Errorf("error updating subscriber: %w", err)
	}
	return nil
}
