// internal/app/review_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"review_reminder/internal/domain/notification"
	"review_reminder/internal/domain/review"
	idb "review_reminder/internal/infra/database"
	"review_reminder/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MinDescriptorSelection is the fewest distinct descriptors a review is built from.
const MinDescriptorSelection = 2

// GenerateReviewInput is one end-user selection.
type GenerateReviewInput struct {
	CompanySlug   string
	DescriptorIDs []int64
	// SubscriberID is set when the visitor came from a reminder link.
	SubscriberID *uuid.UUID
}

// ReviewService composes and stores reviews.
type ReviewService struct {
	reviewRepo review.Repository
	notifRepo  notification.Repository
	composer   *review.Composer
	templates  []string
	logger     *logrus.Entry
	now        func() time.Time
}

func NewReviewService(
	rr review.Repository,
	nr notification.Repository,
	composer *review.Composer,
	templates []string,
	logger *logrus.Entry,
) *ReviewService {
	return &ReviewService{
		reviewRepo: rr,
		notifRepo:  nr,
		composer:   composer,
		templates:  templates,
		logger:     logger,
		now:        time.Now,
	}
}

// ListDescriptors returns every category with its descriptors, ordered for display.
func (s *ReviewService) ListDescriptors(ctx context.Context) ([]*review.Category, error) {
	categories, err := s.reviewRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list descriptor categories: %w", err)
	}
	return categories, nil
}

// GenerateReview turns a descriptor selection into review text and stores it.
// Duplicate ids are dropped while keeping the selection order.
func (s *ReviewService) GenerateReview(ctx context.Context, in GenerateReviewInput) (*review.GeneratedReview, error) {
	ids := dedupeIDs(in.DescriptorIDs)
	if len(ids) < MinDescriptorSelection {
		return nil, fmt.Errorf("%w: need at least %d, got %d", ErrTooFewDescriptors, MinDescriptorSelection, len(ids))
	}

	company, err := s.reviewRepo.GetCompanyBySlug(ctx, in.CompanySlug)
	if err != nil {
		return nil, err
	}

	descriptors, err := s.reviewRepo.GetDescriptorsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	phrases := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		phrases = append(phrases, d.Text)
	}

	text, err := s.composer.Compose(phrases, s.templates)
	if err != nil {
		return nil, err
	}

	generated := &review.GeneratedReview{
		CompanyID: company.ID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if in.SubscriberID != nil {
		generated.SubscriberID = uuid.NullUUID{UUID: *in.SubscriberID, Valid: true}
	}
	if err := s.reviewRepo.SaveGeneratedReview(ctx, generated); err != nil {
		return nil, fmt.Errorf("save generated review: %w", err)
	}
	metrics.ReviewsGenerated.Inc()

	log := s.logger.WithFields(logrus.Fields{"company_id": company.ID, "review_id": generated.ID})
	log.Info("Review generated")

	if in.SubscriberID != nil {
		err := s.notifRepo.MarkReviewCompleted(ctx, *in.SubscriberID, company.ID, generated.CreatedAt)
		switch {
		case errors.Is(err, idb.ErrSubscriptionNotFound):
			// Links can be forwarded; an unknown sid does not fail the review.
			log.WithField("subscriber_id", *in.SubscriberID).Warn("No subscription for review link subscriber")
		case err != nil:
			log.WithError(err).Error("Failed to mark review completed")
		}
	}

	return generated, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
