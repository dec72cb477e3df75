package review

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read access to descriptors and companies and the write of
// finished reviews.
type Repository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	// GetDescriptorsByIDs returns the descriptors in the order of ids.
	GetDescriptorsByIDs(ctx context.Context, ids []int64) ([]Descriptor, error)
	GetCompanyBySlug(ctx context.Context, slug string) (*Company, error)
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*Company, error)
	SaveGeneratedReview(ctx context.Context, r *GeneratedReview) error
}
