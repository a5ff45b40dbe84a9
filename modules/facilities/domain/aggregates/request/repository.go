package request

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type FindParams struct {
	Type        Type
	Status      Status
	RequesterID uuid.UUID
	Limit       int
	Offset      int
}

type Repository interface {
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Request, error)

	// Create persists the envelope and its specialization atomically and
	// returns the stored request with generated fields populated.
	Create(ctx context.Context, req *Request) (*Request, error)

	// Update persists the envelope and specialization guarded by the
	// expected envelope status: when the stored status no longer matches,
	// ErrStale is returned and nothing is written.
	Update(ctx context.Context, req *Request, expectedStatus Status) error

	// ActiveReservations projects the reservation intervals held on a
	// resource by requests in an active status, excluding excludeID when
	// non-nil. Must be called with the resource row already locked.
	ActiveReservations(ctx context.Context, resourceID uuid.UUID, excludeID uuid.UUID, tripWindow time.Duration) ([]Reservation, error)

	// AddReworkAttempt appends an attempt to a job request's rework log.
	AddReworkAttempt(ctx context.Context, attempt *ReworkAttempt) (*ReworkAttempt, error)
	UpdateReworkAttempt(ctx context.Context, attempt *ReworkAttempt) error
}
