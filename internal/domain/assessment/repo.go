package assessment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an assessment (or the user's draft) does not
// exist.
var ErrNotFound = errors.New("assessment not found")

// Repository defines the data access interface for assessments.
type Repository interface {
	Create(ctx context.Context, a *Assessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error)
	// FindDraftByUser returns the newest draft for the user, or ErrNotFound.
	FindDraftByUser(ctx context.Context, userID uuid.UUID) (*Assessment, error)
	// Update persists the full mutable field set of a.
	Update(ctx context.Context, a *Assessment) error
	// UpdateAmount writes only the derived amount (pricing self-heal).
	UpdateAmount(ctx context.Context, id uuid.UUID, amount int) error
	// UpdatePlan writes medication, plan and amount atomically.
	UpdatePlan(ctx context.Context, id uuid.UUID, medication, planType string, amount int) error
	// UpdateStatus writes status and denial reason (nil clears it).
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, denialReason *string) error
	// ListByStatus returns assessments newest first.
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Assessment, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Assessment, error)
}
