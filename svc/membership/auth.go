package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/memberhub/core"
)

// ErrInvalidCredentials is returned when email/password authentication
// fails. The same error covers unknown emails and wrong passwords so the
// login endpoint cannot be used to probe for accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

// Register creates a new member at the free tier.
func (s *Service) Register(ctx context.Context, emailAddr, password string) (*User, error) {
	valErr := core.NewValidationError()
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		valErr.Add("email", "valid email is required")
	}
	if len(password) < minPasswordLength {
		valErr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if !valErr.IsEmpty() {
		return nil, valErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	free := s.tiers.Lowest()
	now := s.now()
	user := &User{
		ID:           uuid.New(),
		Email:        emailAddr,
		PasswordHash: string(hash),
		TierSlug:     free.Slug,
		TierLevel:    free.Level,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the credentials and returns the user.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(emailAddr)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		// Created by a checkout webhook before ever setting a password.
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser loads a member by ID.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}
