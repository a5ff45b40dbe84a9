package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/facilities/modules/facilities/domain/aggregates/request"
	"github.com/iota-uz/facilities/modules/facilities/domain/entities/resource"
)

// ConflictChecker enforces the no-overlap invariant for exclusive
// resources. It must run inside the caller's transaction: the resource
// row lock it takes is what serializes concurrent reservation attempts
// on the same resource.
type ConflictChecker struct {
	requests   request.Repository
	resources  resource.Repository
	tripWindow time.Duration
}

func NewConflictChecker(
	requests request.Repository,
	resources resource.Repository,
	tripWindow time.Duration,
) *ConflictChecker {
	return &ConflictChecker{
		requests:   requests,
		resources:  resources,
		tripWindow: tripWindow,
	}
}

// Check verifies that req's reservation interval does not overlap any
// active reservation on the same resource. excludeID skips the request's
// own stored reservation on the edit path; pass uuid.Nil on creation.
// Requests without an exclusive resource (jobs, supplies) always pass.
func (c *ConflictChecker) Check(ctx context.Context, req *request.Request, excludeID uuid.UUID) error {
	resourceID, ok := req.ResourceID()
	if !ok {
		return nil
	}
	start, end, ok := req.Interval(c.tripWindow)
	if !ok {
		return nil
	}
	if !start.Before(end) {
		return request.ErrValidation.WithDetails("reservation interval is empty or inverted")
	}

	res, err := c.resources.GetByIDForUpdate(ctx, resourceID)
	if err != nil {
		return err
	}
	if !res.Reservable() {
		return request.ErrValidation.WithDetails(
			fmt.Sprintf("resource %s does not take reservations", res.Name))
	}
	if res.Status == resource.StatusUnavailable {
		return request.ErrConflict.WithDetails(
			fmt.Sprintf("resource %s is unavailable", res.Name))
	}

	reservations, err := c.requests.ActiveReservations(ctx, resourceID, excludeID, c.tripWindow)
	if err != nil {
		return err
	}
	for _, reservation := range reservations {
		if reservation.Overlaps(start, end) {
			return request.ErrConflict.WithDetails(fmt.Sprintf(
				"resource %s is reserved for [%s, %s)",
				res.Name,
				reservation.Start.Format(time.RFC3339),
				reservation.End.Format(time.RFC3339),
			))
		}
	}
	return nil
}
