package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a profile does not exist.
var ErrNotFound = errors.New("profile not found")

// ErrEmailTaken is returned when a sign-up email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// Repository is the persistence boundary for profiles.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Profile, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}
