package resource

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Type         Type
	DepartmentID uuid.UUID
	Limit        int
	Offset       int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Resource, error)
	// GetByIDForUpdate locks the resource row for the remainder of the
	// surrounding transaction. Conflict checks take this lock first so
	// concurrent reservations of one resource serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Resource, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Resource, error)
	Create(ctx context.Context, res *Resource) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// AdjustQuantity adds delta to the stock and fails when the result
	// would go negative.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) error
}
