package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/memberhub/pkg/pg"
)

// PGUserStore is the pgx-backed UserStore.
type PGUserStore struct {
	pool *pgxpool.Pool
}

// NewPGUserStore creates a Postgres user store.
func NewPGUserStore(pool *pgxpool.Pool) *PGUserStore {
	return &PGUserStore{pool: pool}
}

const userColumns = `id, email, password_hash, tier_slug, tier_level, pending_tier_slug,
	customer_id, subscription_id, billing_period_end, created_at, updated_at`

func (s *PGUserStore) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.TierSlug, &u.TierLevel, &u.PendingTierSlug,
		&u.CustomerID, &u.SubscriptionID, &u.BillingPeriodEnd, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (s *PGUserStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PGUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *PGUserStore) GetByCustomerID(ctx context.Context, customerID string) (*User, error) {
	if customerID == "" {
		return nil, ErrUserNotFound
	}
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE customer_id = $1`, customerID))
}

func (s *PGUserStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*User, error) {
	if subscriptionID == "" {
		return nil, ErrUserNotFound
	}
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE subscription_id = $1`, subscriptionID))
}

func (s *PGUserStore) Create(ctx context.Context, user *User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, tier_slug, tier_level, pending_tier_slug,
			customer_id, subscription_id, billing_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID, user.Email, user.PasswordHash, user.TierSlug, user.TierLevel, user.PendingTierSlug,
		user.CustomerID, user.SubscriptionID, user.BillingPeriodEnd, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *PGUserStore) Update(ctx context.Context, user *User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			tier_slug = $4,
			tier_level = $5,
			pending_tier_slug = $6,
			customer_id = $7,
			subscription_id = $8,
			billing_period_end = $9,
			updated_at = now()
		WHERE id = $1`,
		user.ID, user.Email, user.PasswordHash, user.TierSlug, user.TierLevel, user.PendingTierSlug,
		user.CustomerID, user.SubscriptionID, user.BillingPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// PGEventStore is the pgx-backed EventStore. The unique constraint on
// event_id is the idempotency guarantee under concurrent deliveries.
type PGEventStore struct {
	pool *pgxpool.Pool
}

// NewPGEventStore creates a Postgres event store.
func NewPGEventStore(pool *pgxpool.Pool) *PGEventStore {
	return &PGEventStore{pool: pool}
}

func (s *PGEventStore) Exists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return exists, nil
}

func (s *PGEventStore) Create(ctx context.Context, event *ProcessedEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processed_events (event_id, kind, payload, failed, processed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		event.EventID, event.Kind, event.Payload, event.Failed, event.ProcessedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrEventAlreadyProcessed
		}
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}
