package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"review_reminder/internal/domain/review"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array
)

type PostgresReviewRepository struct {
	db *sql.DB
}

func NewPostgresReviewRepository(db *sql.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

// ListCategories returns every category in display order with its descriptors.
func (r *PostgresReviewRepository) ListCategories(ctx context.Context) ([]*review.Category, error) {
	query := `SELECT c.id, c.name, c.sort_order, d.id, d.text, d.sort_order
               FROM descriptor_categories c
               LEFT JOIN descriptors d ON d.category_id = c.id
               ORDER BY c.sort_order, c.id, d.sort_order, d.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing descriptor categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*review.Category, 0)
	var current *review.Category
	for rows.Next() {
		var (
			catID, catOrder int64
			catName         string
			descID, descOrd sql.NullInt64
			descText        sql.NullString
		)
		if err := rows.Scan(&catID, &catName, &catOrder, &descID, &descText, &descOrd); err != nil {
			return nil, fmt.Errorf("error scanning descriptor category row: %w", err)
		}
		if current == nil || current.ID != catID {
			current = &review.Category{ID: catID, Name: catName, SortOrder: int(catOrder), Descriptors: []review.Descriptor{}}
			categories = append(categories, current)
		}
		if descID.Valid {
			current.Descriptors = append(current.Descriptors, review.Descriptor{
				ID:         descID.Int64,
				CategoryID: catID,
				Text:       descText.String,
				SortOrder:  int(descOrd.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating descriptor category rows: %w", err)
	}
	return categories, nil
}

func (r *PostgresReviewRepository) GetDescriptorsByIDs(ctx context.Context, ids []int64) ([]review.Descriptor, error) {
	if len(ids) == 0 {
		return []review.Descriptor{}, nil
	}

	query := `SELECT id, category_id, text, sort_order FROM descriptors WHERE id = ANY($1::bigint[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying descriptors: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]review.Descriptor, len(ids))
	for rows.Next() {
		var d review.Descriptor
		if err := rows.Scan(&d.ID, &d.CategoryID, &d.Text, &d.SortOrder); err != nil {
			return nil, fmt.Errorf("error scanning descriptor row: %w", err)
		}
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating descriptor rows: %w", err)
	}

	descriptors := make([]review.Descriptor, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrDescriptorNotFound, id)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func (r *PostgresReviewRepository) GetCompanyBySlug(ctx context.Context, slug string) (*review.Company, error) {
	query := `SELECT id, name, slug, created_at FROM companies WHERE slug = $1`
	return r.getCompany(ctx, query, slug)
}

func (r *PostgresReviewRepository) GetCompanyByID(ctx context.Context, id uuid.UUID) (*review.Company, error) {
	query := `SELECT id, name, slug, created_at FROM companies WHERE id = $1`
	return r.getCompany(ctx, query, id)
}

func (r *PostgresReviewRepository) getCompany(ctx context.Context, query string, arg any) (*review.Company, error) {
	c := review.Company{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error getting company: %w", err)
	}
	return &c, nil
}

func (r *PostgresReviewRepository) SaveGeneratedReview(ctx context.Context, gr *review.GeneratedReview) error {
	query := `INSERT INTO generated_reviews (company_id, subscriber_id, text)
               VALUES ($1, $2, $3)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, gr.CompanyID, gr.SubscriberID, gr.Text).Scan(&gr.ID, &gr.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving generated review: %w", err)
	}
	return nil
}
