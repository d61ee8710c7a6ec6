package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/memberhub/pkg/pg"
)

// PGContentStore is the pgx-backed ContentStore.
type PGContentStore struct {
	pool *pgxpool.Pool
}

func NewPGContentStore(pool *pgxpool.Pool) *PGContentStore {
	return &PGContentStore{pool: pool}
}

func (s *PGContentStore) GetBySlug(ctx context.Context, slug string) (*Content, error) {
	var c Content
	err := s.pool.QueryRow(ctx, `
		SELECT id, slug, kind, title, required_level, published, preview,
			available_after_days, created_at, updated_at
		FROM contents WHERE lower(slug) = lower($1)`, slug,
	).Scan(
		&c.ID, &c.Slug, &c.Kind, &c.Title, &c.RequiredLevel, &c.Published, &c.Preview,
		&c.AvailableAfterDays, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to load content %q: %w", slug, err)
	}
	return &c, nil
}

func (s *PGContentStore) Create(ctx context.Context, item *Content) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contents (id, slug, kind, title, required_level, published, preview,
			available_after_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.Slug, item.Kind, item.Title, item.RequiredLevel, item.Published,
		item.Preview, item.AvailableAfterDays, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrContentExists
		}
		return fmt.Errorf("failed to insert content %q: %w", item.Slug, err)
	}
	return nil
}

// PGEnrollmentStore is the pgx-backed EnrollmentStore.
type PGEnrollmentStore struct {
	pool *pgxpool.Pool
}

func NewPGEnrollmentStore(pool *pgxpool.Pool) *PGEnrollmentStore {
	return &PGEnrollmentStore{pool: pool}
}

func (s *PGEnrollmentStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*Enrollment, error) {
	var e Enrollment
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, cohort_id, starts_at
		FROM enrollments WHERE user_id = $1
		ORDER BY starts_at ASC LIMIT 1`, userID,
	).Scan(&e.UserID, &e.CohortID, &e.StartsAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to load enrollment for user %s: %w", userID, err)
	}
	return &e, nil
}

func (s *PGEnrollmentStore) Create(ctx context.Context, enrollment *Enrollment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrollments (user_id, cohort_id, starts_at)
		VALUES ($1, $2, $3)`,
		enrollment.UserID, enrollment.CohortID, enrollment.StartsAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return nil
}
